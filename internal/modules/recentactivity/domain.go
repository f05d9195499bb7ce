// internal/modules/recentactivity/domain.go
package recentactivity

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// extractDomain retorna el dominio registrable (eTLD+1) de raw.
// Acepta URLs sin esquema ("example.com/path"). Direcciones IP y hosts sin
// sufijo público se retornan tal cual.
func extractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if u, err = url.Parse("http://" + raw); err != nil {
			return ""
		}
	}

	host := strings.ToLower(u.Hostname())
	if host == "" || net.ParseIP(host) != nil {
		return host
	}
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}
