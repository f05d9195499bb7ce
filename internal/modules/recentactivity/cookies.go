// internal/modules/recentactivity/cookies.go
package recentactivity

import (
	"strings"

	"autoingest/internal/core/domain"
)

// maxCookieSize límite de lectura de un archivo de cookies
const maxCookieSize = 1 << 20

// cookieAttributes arma los atributos de un archivo de cookies de IE.
// Las primeras tres líneas son nombre, valor y host/ruta del primer registro.
func cookieAttributes(f *domain.File) ([]domain.Attribute, error) {
	data, err := readLimited(f, maxCookieSize)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(data), "\n")
	field := func(i int) string {
		if i < len(lines) {
			return strings.TrimRight(lines[i], "\r")
		}
		return ""
	}
	name, value, url := field(0), field(1), field(2)

	return []domain.Attribute{
		domain.NewAttribute(domain.AttrURL, attrSource, url),
		domain.NewAttribute(domain.AttrDateTime, attrSource, fileTime(f)),
		domain.NewAttribute(domain.AttrName, attrSource, name),
		domain.NewAttribute(domain.AttrValue, attrSource, value),
		domain.NewAttribute(domain.AttrProgramName, attrSource, programName),
		domain.NewAttribute(domain.AttrDomain, attrSource, extractDomain(url)),
	}, nil
}
