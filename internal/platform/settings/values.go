// internal/platform/settings/values.go
package settings

import (
	"strconv"
	"strings"
)

// GetBool retorna values[key] como bool ("true"/"false", "1"/"0").
// Si falta o no es válido retorna defaultValue.
func GetBool(values map[string]string, key string, defaultValue bool) bool {
	v, ok := values[key]
	if !ok {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return defaultValue
	}
	return b
}

// GetList retorna values[key] decodificado con DecodeModuleList.
func GetList(values map[string]string, key string, defaultValue []string) []string {
	v, ok := values[key]
	if !ok {
		return defaultValue
	}
	return DecodeModuleList(v)
}
