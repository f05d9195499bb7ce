// internal/core/ports/enumerator.go
package ports

import (
	"context"

	"autoingest/internal/core/domain"
)

// FileEnumerator descubre archivos dentro de un data source.
// Las secuencias son perezosas, finitas y no reiniciables: el canal de archivos
// se cierra al terminar y el canal de errores entrega a lo sumo un error.
type FileEnumerator interface {
	// FindFiles retorna los archivos cuyo nombre y ruta padre coinciden con
	// patrones estilo SQL LIKE (% y _). pathPattern vacío = cualquier ruta.
	FindFiles(ctx context.Context, ds *domain.DataSource, namePattern, pathPattern string) (<-chan *domain.File, <-chan error)

	// AllFiles retorna todos los archivos del data source.
	AllFiles(ctx context.Context, ds *domain.DataSource) (<-chan *domain.File, <-chan error)
}
