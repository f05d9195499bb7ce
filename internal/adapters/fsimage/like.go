// internal/adapters/fsimage/like.go
package fsimage

import (
	"regexp"
	"strings"
)

// likePattern compila un patrón SQL LIKE: % = cualquier secuencia, _ = un
// carácter. La comparación no distingue mayúsculas.
func likePattern(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
