// internal/modules/recentactivity/bookmarks.go
package recentactivity

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/go-ini/ini"

	"autoingest/internal/core/domain"
)

// maxShortcutSize límite de lectura de un archivo .url
const maxShortcutSize = 64 << 10

// bookmarkAttributes arma los atributos de un favorito .url.
// Un archivo sin línea URL produce un bookmark con URL vacía.
func bookmarkAttributes(f *domain.File) ([]domain.Attribute, error) {
	data, err := readLimited(f, maxShortcutSize)
	if err != nil {
		return nil, err
	}
	url := shortcutURL(data)

	return []domain.Attribute{
		domain.NewAttribute(domain.AttrURL, attrSource, url),
		domain.NewAttribute(domain.AttrTitle, attrSource, f.Name),
		domain.NewAttribute(domain.AttrDateTimeCreated, attrSource, fileTime(f)),
		domain.NewAttribute(domain.AttrProgramName, attrSource, programName),
		domain.NewAttribute(domain.AttrDomain, attrSource, extractDomain(url)),
	}, nil
}

// shortcutURL lee la clave URL de la sección [InternetShortcut]. Si el
// archivo no es INI válido, toma la primera línea que empieza con "URL".
func shortcutURL(data []byte) string {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, data)
	if err == nil {
		if sec, err := cfg.GetSection("InternetShortcut"); err == nil {
			if url := strings.TrimSpace(sec.Key("URL").String()); url != "" {
				return url
			}
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "URL") {
			continue
		}
		if idx := strings.Index(line, "="); idx >= 0 {
			return strings.TrimSpace(line[idx+1:])
		}
		return ""
	}
	return ""
}

func readLimited(f *domain.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, limit))
}
