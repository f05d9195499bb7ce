// internal/adapters/fsimage/enumerator.go
package fsimage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/errors"
	"autoingest/internal/platform/logx"
)

// UnallocatedDir directorio donde una imagen extraída expone los bloques de
// espacio no asignado.
const UnallocatedDir = "$Unalloc"

// Enumerator descubre archivos en imágenes extraídas a un árbol de
// directorios (DataSource.Root).
type Enumerator struct {
	logger logx.Logger
	buffer int
}

var _ ports.FileEnumerator = (*Enumerator)(nil)

// New crea un enumerador.
func New(logger logx.Logger) *Enumerator {
	if logger == nil {
		logger = logx.New()
	}
	return &Enumerator{
		logger: logger.With("component", "fsimage"),
		buffer: 64,
	}
}

// AllFiles implementa ports.FileEnumerator.
func (e *Enumerator) AllFiles(ctx context.Context, ds *domain.DataSource) (<-chan *domain.File, <-chan error) {
	return e.walk(ctx, ds, func(*domain.File) bool { return true })
}

// FindFiles implementa ports.FileEnumerator. namePattern se compara contra el
// nombre completo del archivo; pathPattern contra cualquier parte de la ruta
// padre, como hace el file manager del caso.
func (e *Enumerator) FindFiles(ctx context.Context, ds *domain.DataSource, namePattern, pathPattern string) (<-chan *domain.File, <-chan error) {
	nameRe, err := likePattern(namePattern)
	if err != nil {
		return failed(errors.Wrapf(err, "name pattern %q", namePattern))
	}

	var parentRe *regexp.Regexp
	if pathPattern != "" {
		if parentRe, err = likePattern("%" + pathPattern + "%"); err != nil {
			return failed(errors.Wrapf(err, "path pattern %q", pathPattern))
		}
	}

	return e.walk(ctx, ds, func(f *domain.File) bool {
		if !nameRe.MatchString(f.Name) {
			return false
		}
		return parentRe == nil || parentRe.MatchString(f.ParentPath)
	})
}

// walk recorre el árbol en orden léxico y entrega los archivos que cumplen
// match. Entradas ilegibles se registran y se omiten.
func (e *Enumerator) walk(ctx context.Context, ds *domain.DataSource, match func(*domain.File) bool) (<-chan *domain.File, <-chan error) {
	if err := ds.Validate(); err != nil {
		return failed(err)
	}
	info, err := os.Stat(ds.Root)
	if err != nil {
		return failed(errors.Wrapf(err, "data source %s root", ds.ID))
	}
	if !info.IsDir() {
		return failed(errors.Wrapf(errors.ErrInvalidInput, "data source %s root %s is not a directory", ds.ID, ds.Root))
	}

	out := make(chan *domain.File, e.buffer)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		err := filepath.WalkDir(ds.Root, func(full string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				e.logger.Warn("skipping unreadable entry", "path", full, "error", walkErr.Error())
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}

			f, err := e.newFile(ds, full, d)
			if err != nil {
				e.logger.Warn("skipping file", "path", full, "error", err.Error())
				return nil
			}
			if !match(f) {
				return nil
			}

			select {
			case out <- f:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

func (e *Enumerator) newFile(ds *domain.DataSource, full string, d fs.DirEntry) (*domain.File, error) {
	info, err := d.Info()
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(ds.Root, full)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)
	parent := path.Dir(rel)
	if parent == "." {
		parent = ""
	}

	kind := domain.FileKindRegular
	if strings.HasPrefix(rel, UnallocatedDir+"/") {
		kind = domain.FileKindUnallocated
	}

	f := domain.NewFile(ds.ID+":"+rel, ds.ID, parent, d.Name(), info.Size(), kind, func() (io.ReadCloser, error) {
		return os.Open(full)
	})
	f.ModTime = info.ModTime()
	return f, nil
}

// failed retorna una secuencia vacía con un único error.
func failed(err error) (<-chan *domain.File, <-chan error) {
	out := make(chan *domain.File)
	errCh := make(chan error, 1)
	errCh <- err
	close(out)
	close(errCh)
	return out, errCh
}
