// internal/adapters/fsimage/enumerator_test.go
package fsimage

import (
	"context"
	"io"
	"sort"
	"testing"

	"autoingest/internal/core/domain"
	"autoingest/internal/platform/errors"
	"autoingest/internal/platform/logx"
	"autoingest/internal/testutil"
)

func collect(t *testing.T, files <-chan *domain.File, errs <-chan error) []*domain.File {
	t.Helper()
	var out []*domain.File
	for f := range files {
		out = append(out, f)
	}
	if err := <-errs; err != nil {
		t.Fatalf("enumeration failed: %v", err)
	}
	return out
}

func paths(files []*domain.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path())
	}
	sort.Strings(out)
	return out
}

func testImage(t *testing.T) *domain.DataSource {
	t.Helper()
	root := t.TempDir()
	testutil.WriteStringTree(t, root, testutil.FixtureBookmarks)
	testutil.WriteStringTree(t, root, map[string]string{
		"Windows/notepad.exe":   "MZ",
		"$Unalloc/Unalloc_1_0":  "deleted bytes",
		"Users/alice/photo.JPG": "\xff\xd8\xff\xe0",
	})
	return domain.NewDataSource("img-1", "image one", root)
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"%.url", "Example.url", true},
		{"%.url", "EXAMPLE.URL", true},
		{"%.url", "Example.url.bak", false},
		{"index.dat", "index.dat", true},
		{"index.dat", "indexxdat", false},
		{"file_.txt", "file1.txt", true},
		{"file_.txt", "file12.txt", false},
		{"%Favorites%", "/Users/alice/Favorites/Links", true},
		{"a+b%", "a+b.txt", true},
	}

	for _, tt := range tests {
		re, err := likePattern(tt.pattern)
		testutil.AssertNoError(t, err, tt.pattern)
		testutil.AssertEqual(t, re.MatchString(tt.value), tt.want, tt.pattern+" vs "+tt.value)
	}
}

func TestEnumerator_AllFiles(t *testing.T) {
	ds := testImage(t)
	e := New(logx.NewNop())

	fc, ec := e.AllFiles(context.Background(), ds)
	files := collect(t, fc, ec)
	testutil.AssertEqual(t, len(files), 8, "file count")

	var unalloc *domain.File
	for _, f := range files {
		testutil.AssertEqual(t, f.DataSourceID, "img-1", "data source id")
		if f.IsUnallocated() {
			unalloc = f
		}
	}
	if unalloc == nil {
		t.Fatal("unallocated file not flagged")
	}
	testutil.AssertEqual(t, unalloc.Path(), "/$Unalloc/Unalloc_1_0", "unallocated path")
}

func TestEnumerator_FindFilesLikeSemantics(t *testing.T) {
	ds := testImage(t)
	e := New(logx.NewNop())

	fc, ec := e.FindFiles(context.Background(), ds, "%.url", "Favorites")
	files := collect(t, fc, ec)
	testutil.AssertStrings(t, paths(files), []string{
		"/Users/alice/Favorites/Example.url",
		"/Users/alice/Favorites/Links/News.url",
		"/Users/bob/Favorites/Broken.url",
	}, "bookmark files")

	fc, ec = e.FindFiles(context.Background(), ds, "%.jpg", "")
	jpgs := collect(t, fc, ec)
	testutil.AssertStrings(t, paths(jpgs), []string{"/Users/alice/photo.JPG"}, "case-insensitive name")
}

func TestEnumerator_FilesAreReadable(t *testing.T) {
	ds := testImage(t)
	e := New(logx.NewNop())

	fc, ec := e.FindFiles(context.Background(), ds, "Example.url", "Favorites")
	files := collect(t, fc, ec)
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	rc, err := files[0].Open()
	testutil.AssertNoError(t, err, "open")
	defer rc.Close()
	data, err := io.ReadAll(rc)
	testutil.AssertNoError(t, err, "read")
	testutil.AssertContains(t, string(data), "URL=https://www.example.com/index.html", "content")
	testutil.AssertFalse(t, files[0].ModTime.IsZero(), "mod time")
}

func TestEnumerator_InvalidRoot(t *testing.T) {
	e := New(logx.NewNop())
	ds := domain.NewDataSource("img-1", "image", t.TempDir()+"/missing")

	files, errs := e.AllFiles(context.Background(), ds)
	for range files {
		t.Fatal("no files expected")
	}
	testutil.AssertError(t, <-errs, "missing root")

	_, errs = e.AllFiles(context.Background(), nil)
	testutil.AssertErrorIs(t, <-errs, domain.ErrNilDataSource, "nil data source")
}

func TestEnumerator_RootMustBeDirectory(t *testing.T) {
	root := t.TempDir()
	testutil.WriteStringTree(t, root, map[string]string{"image.dd": "raw"})
	ds := domain.NewDataSource("img-1", "image", root+"/image.dd")

	_, errs := New(logx.NewNop()).AllFiles(context.Background(), ds)
	testutil.AssertErrorIs(t, <-errs, errors.ErrInvalidInput, "file root")
}

func TestEnumerator_StopsOnCancel(t *testing.T) {
	ds := testImage(t)
	e := New(logx.NewNop())
	e.buffer = 0

	ctx, cancel := context.WithCancel(context.Background())
	files, errs := e.AllFiles(ctx, ds)
	<-files
	cancel()
	for range files {
	}
	testutil.AssertErrorIs(t, <-errs, context.Canceled, "cancel error")
}
