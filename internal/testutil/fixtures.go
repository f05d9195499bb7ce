// internal/testutil/fixtures.go
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Fixture data para tests (valores primitivos solamente, sin dependencias de domain)

// FixtureModuleNames contiene nombres de módulos de prueba en orden de registro.
var FixtureModuleNames = []string{
	"Recent Activity",
	"Exif Parser",
	"Hash Lookup",
}

// FixtureBookmarks contiene archivos .url de Internet Explorer.
var FixtureBookmarks = map[string]string{
	"Users/alice/Favorites/Example.url":      "[InternetShortcut]\r\nURL=https://www.example.com/index.html\r\n",
	"Users/alice/Favorites/Links/News.url":   "[DEFAULT]\r\nBASEURL=https://news.example.co.uk/\r\n[InternetShortcut]\r\nURL=https://news.example.co.uk/today\r\n",
	"Users/bob/Favorites/Broken.url":         "[InternetShortcut]\r\n",
	"Users/bob/Documents/NotAFavorite.url":   "[InternetShortcut]\r\nURL=https://ignored.example.org/\r\n",
	"Users/bob/Favorites/readme.txt":         "not a shortcut",
}

// WriteTree crea los archivos dados (ruta relativa con "/" -> contenido) bajo root.
func WriteTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for rel, data := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", full, err)
		}
		if err := os.WriteFile(full, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", full, err)
		}
	}
}

// WriteStringTree es WriteTree con contenido string.
func WriteStringTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	converted := make(map[string][]byte, len(files))
	for k, v := range files {
		converted[k] = []byte(v)
	}
	WriteTree(t, root, converted)
}
