// internal/platform/settings/selection.go
package settings

import (
	"strconv"
	"strings"

	"autoingest/internal/core/ports"
)

// Claves persistidas por SelectionStore.
const (
	KeyDisabledModules    = "Disabled_Ingest_Modules"
	KeyProcessUnallocated = "Process_Unalloc_Space"
)

// moduleSeparator es el separador del formato "Name1, Name2".
const moduleSeparator = ", "

// EncodeModuleList serializa nombres como "A, B". Lista vacía = "".
func EncodeModuleList(names []string) string {
	return strings.Join(names, moduleSeparator)
}

// DecodeModuleList es la inversa de EncodeModuleList. "" = lista vacía.
func DecodeModuleList(csv string) []string {
	if csv == "" {
		return []string{}
	}
	return strings.Split(csv, moduleSeparator)
}

// SelectionStore persiste qué módulos están habilitados y si se procesa el
// espacio no asignado, bajo un nombre de contexto.
type SelectionStore struct {
	store   ports.SettingsStore
	context string
}

// NewSelectionStore crea un store de selección sobre store.
func NewSelectionStore(store ports.SettingsStore, context string) *SelectionStore {
	return &SelectionStore{store: store, context: context}
}

// Save guarda como deshabilitados los módulos de all que no están en enabled.
func (s *SelectionStore) Save(all, enabled []string, processUnalloc bool) error {
	on := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		on[name] = true
	}
	disabled := make([]string, 0, len(all))
	for _, name := range all {
		if !on[name] {
			disabled = append(disabled, name)
		}
	}

	return s.store.SetAll(s.context, map[string]string{
		KeyDisabledModules:    EncodeModuleList(disabled),
		KeyProcessUnallocated: strconv.FormatBool(processUnalloc),
	})
}

// Load retorna los módulos de all que no están deshabilitados, en el orden de
// all, y el flag de espacio no asignado. Nombres persistidos que ya no existen
// se ignoran. Un valor ausente o inválido del flag es false.
func (s *SelectionStore) Load(all []string) (enabled []string, processUnalloc bool) {
	values := s.store.GetAll(s.context)
	off := make(map[string]bool)
	for _, name := range GetList(values, KeyDisabledModules, nil) {
		off[name] = true
	}

	enabled = make([]string, 0, len(all))
	for _, name := range all {
		if !off[name] {
			enabled = append(enabled, name)
		}
	}
	return enabled, GetBool(values, KeyProcessUnallocated, false)
}

// HasSelection indica si ya se guardó una selección para el contexto.
func (s *SelectionStore) HasSelection() bool {
	_, ok := s.store.Get(s.context, KeyDisabledModules)
	return ok
}
