// internal/adapters/output/json.go
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// sanitizeName convierte un identificador en un nombre de carpeta válido.
// Ejemplo: "case 2024/01" -> "case_2024_01"
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, name)
}

// OutputJSON escribe el reporte en dir/<id>/autoingest_<timestamp>.json y
// retorna la ruta del archivo.
func OutputJSON(dir string, r *Report) (string, error) {
	if dir == "" {
		dir = "."
	}

	fullDir := filepath.Join(dir, sanitizeName(r.ID))
	if err := os.MkdirAll(fullDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	stamp := r.StartedAt.Format("20060102_150405")
	path := filepath.Join(fullDir, fmt.Sprintf("autoingest_%s.json", stamp))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := writeJSON(f, r, true); err != nil {
		return "", err
	}
	return path, nil
}

// OutputJSONStdout escribe el reporte a stdout.
func OutputJSONStdout(r *Report, pretty bool) error {
	return writeJSON(os.Stdout, r, pretty)
}

func writeJSON(w io.Writer, r *Report, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
