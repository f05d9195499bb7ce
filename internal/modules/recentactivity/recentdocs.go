// internal/modules/recentactivity/recentdocs.go
package recentactivity

import (
	"bytes"
	"errors"
	"strings"

	lnk "github.com/parsiya/golnk"

	"autoingest/internal/core/domain"
)

// maxRecentDocSize límite de lectura de un acceso directo de Recent
const maxRecentDocSize = 1 << 20

// errSkipFile marca archivos que se omiten sin reportar error.
var errSkipFile = errors.New("file skipped")

// recentDocumentAttributes arma los atributos de un .lnk de la carpeta Recent:
// ruta del documento apuntado y fecha del acceso directo. Un .lnk ilegible
// en espacio no asignado se omite sin error.
func recentDocumentAttributes(f *domain.File) ([]domain.Attribute, error) {
	data, err := readLimited(f, maxRecentDocSize)
	if err != nil {
		return nil, err
	}

	link, err := lnk.Read(bytes.NewReader(data), uint64(len(data)))
	if err != nil {
		if f.IsUnallocated() {
			return nil, errSkipFile
		}
		return nil, err
	}

	return []domain.Attribute{
		domain.NewAttribute(domain.AttrPath, attrSource, targetPath(link)),
		domain.NewAttribute(domain.AttrDateTime, attrSource, fileTime(f)),
	}, nil
}

// targetPath elige la mejor ruta disponible: ruta local completa, luego la
// ruta relativa y por último el nombre descriptivo.
func targetPath(link lnk.LnkFile) string {
	if base := strings.TrimSpace(link.LinkInfo.LocalBasePath); base != "" {
		return base + link.LinkInfo.CommonPathSuffix
	}
	if rel := strings.TrimSpace(link.StringData.RelativePath); rel != "" {
		return rel
	}
	return strings.TrimSpace(link.StringData.NameString)
}
