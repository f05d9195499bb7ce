// internal/platform/ui/helpers.go
package ui

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"autoingest/internal/core/ports"
)

// formatDuration formatea una duración de manera legible
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
}

// formatBytes formatea bytes en unidades binarias ("1.0 GiB").
func formatBytes(b uint64) string {
	return humanize.IBytes(b)
}

// progressText arma el texto de una línea de progreso.
func progressText(u ports.ProgressUpdate) string {
	text := u.Title
	switch {
	case u.Total > 0:
		text += fmt.Sprintf(" [%d/%d]", u.Done, u.Total)
	case u.Done > 0:
		text += fmt.Sprintf(" [%d]", u.Done)
	}
	if u.Detail != "" {
		text += " " + u.Detail
	}
	return text
}

// sortedKeys retorna las claves de m ordenadas.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
