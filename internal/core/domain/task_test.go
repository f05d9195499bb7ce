// internal/core/domain/task_test.go
package domain

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"autoingest/internal/testutil"
)

func TestNewTasks(t *testing.T) {
	ds := NewDataSource("img-1", "img", "/x")
	f := NewFile("img-1:a.txt", "img-1", "", "a.txt", 1, "", nil)

	dsTask := NewDataSourceTask(ds, "Recent Activity")
	fileTask := NewFileTask(ds, f)

	testutil.AssertEqual(t, dsTask.Tier, TierDataSource, "datasource tier")
	testutil.AssertEqual(t, dsTask.Target(), Content(ds), "datasource target")
	testutil.AssertEqual(t, fileTask.Tier, TierFile, "file tier")
	testutil.AssertEqual(t, fileTask.Target(), Content(f), "file target")
	testutil.AssertNotEqual(t, dsTask.ID, fileTask.ID, "unique ids")
}

func TestCancellationToken(t *testing.T) {
	token := NewCancellationToken(context.Background())
	testutil.AssertFalse(t, token.IsCancelled(), "fresh token")

	token.Cancel("user")
	token.Cancel("second")
	testutil.AssertTrue(t, token.IsCancelled(), "cancelled")
	testutil.AssertEqual(t, token.Reason(), "user", "first reason kept")

	select {
	case <-token.Done():
	default:
		t.Fatal("Done should be closed")
	}
	testutil.AssertErrorIs(t, token.Context().Err(), context.Canceled, "context cancelled")
}

func TestCancellationToken_ParentAndRelease(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	token := NewCancellationToken(parent)
	cancel()
	testutil.AssertTrue(t, token.IsCancelled(), "parent cancel propagates")
	testutil.AssertEqual(t, token.Reason(), "", "no explicit reason")

	released := NewCancellationToken(context.Background())
	released.Release()
	testutil.AssertEqual(t, released.Reason(), "", "release is not an explicit cancel")
}

func TestFile(t *testing.T) {
	open := func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("\xFF\xD8rest")), nil }
	f := NewFile("id", "img-1", "/DCIM/100/", "Photo.JPEG", 6, "", open)

	testutil.AssertEqual(t, f.Path(), "/DCIM/100/Photo.JPEG", "path")
	testutil.AssertEqual(t, f.Extension(), ".jpeg", "lowercase extension")
	testutil.AssertEqual(t, f.Kind, FileKindRegular, "default kind")
	testutil.AssertFalse(t, f.IsUnallocated(), "regular file")

	header, err := f.ReadHeader(2)
	testutil.AssertNoError(t, err, "read header")
	testutil.AssertEqual(t, string(header), "\xFF\xD8", "header bytes")

	_, err = f.ReadHeader(10)
	testutil.AssertErrorIs(t, err, io.ErrUnexpectedEOF, "short file")

	noExt := NewFile("id2", "img-1", "", "README", 0, FileKindUnallocated, nil)
	testutil.AssertEqual(t, noExt.Extension(), "", "no extension")
	testutil.AssertTrue(t, noExt.IsUnallocated(), "unallocated")
	_, err = noExt.Open()
	testutil.AssertError(t, err, "no opener")
	testutil.AssertFalse(t, errors.Is(err, io.EOF), "not EOF")
}
