// internal/core/domain/file.go
package domain

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Opener abre el contenido de un archivo para lectura.
type Opener func() (io.ReadCloser, error)

// File es un archivo descubierto dentro de un data source.
type File struct {
	ID           string
	DataSourceID string
	Name         string
	ParentPath   string
	Size         int64
	Kind         FileKind
	ModTime      time.Time // cero si la imagen no lo expone

	open Opener
}

// NewFile crea un archivo. parentPath usa "/" como separador, relativo a la raíz de la imagen.
func NewFile(id, dataSourceID, parentPath, name string, size int64, kind FileKind, open Opener) *File {
	if kind == "" {
		kind = FileKindRegular
	}
	return &File{
		ID:           id,
		DataSourceID: dataSourceID,
		Name:         name,
		ParentPath:   "/" + strings.Trim(parentPath, "/"),
		Size:         size,
		Kind:         kind,
		open:         open,
	}
}

// ContentID implementa Content.
func (f *File) ContentID() string { return f.ID }

// ContentName implementa Content.
func (f *File) ContentName() string { return f.Name }

// Path retorna la ruta completa dentro de la imagen.
func (f *File) Path() string {
	return path.Join(f.ParentPath, f.Name)
}

// Extension retorna la extensión en minúsculas incluyendo el punto, o "" si no tiene.
func (f *File) Extension() string {
	idx := strings.LastIndex(f.Name, ".")
	if idx == -1 {
		return ""
	}
	return strings.ToLower(f.Name[idx:])
}

// IsUnallocated indica si el archivo representa espacio no asignado.
func (f *File) IsUnallocated() bool {
	return f.Kind == FileKindUnallocated
}

// Open abre el contenido del archivo.
func (f *File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %s has no content", f.Path())
	}
	return f.open()
}

// ReadHeader lee hasta n bytes del inicio del archivo.
// Retorna io.ErrUnexpectedEOF si el archivo es más corto que n.
func (f *File) ReadHeader(n int) ([]byte, error) {
	if f.Size < int64(n) {
		return nil, io.ErrUnexpectedEOF
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := make([]byte, n)
	if _, err := io.ReadFull(rc, buf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}

// String retorna la ruta del archivo.
func (f *File) String() string {
	return f.Path()
}
