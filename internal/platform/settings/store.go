// internal/platform/settings/store.go
package settings

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"autoingest/internal/platform/errors"
)

// YAMLStore persiste la configuración de cada módulo en un archivo YAML:
//
//	module_name:
//	  key: value
//
// Un path vacío mantiene los valores solo en memoria.
type YAMLStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]map[string]string
}

// NewYAMLStore carga path si existe. Un archivo inexistente no es error.
func NewYAMLStore(path string) (*YAMLStore, error) {
	s := &YAMLStore{
		path:   path,
		values: make(map[string]map[string]string),
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrapf(err, "read settings %s", path)
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, errors.Wrapf(err, "parse settings %s", path)
	}
	if s.values == nil {
		s.values = make(map[string]map[string]string)
	}
	return s, nil
}

// Get implementa ports.SettingsStore.
func (s *YAMLStore) Get(module, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[module][key]
	return v, ok
}

// Set implementa ports.SettingsStore.
func (s *YAMLStore) Set(module, key, value string) error {
	return s.SetAll(module, map[string]string{key: value})
}

// GetAll implementa ports.SettingsStore.
func (s *YAMLStore) GetAll(module string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values[module]))
	for k, v := range s.values[module] {
		out[k] = v
	}
	return out
}

// SetAll implementa ports.SettingsStore. Las claves no incluidas se preservan.
func (s *YAMLStore) SetAll(module string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	section, ok := s.values[module]
	if !ok {
		section = make(map[string]string, len(values))
		s.values[module] = section
	}
	for k, v := range values {
		section[k] = v
	}
	return s.flushLocked()
}

// Modules retorna los módulos con configuración, ordenados.
func (s *YAMLStore) Modules() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// flushLocked escribe el archivo vía rename atómico.
func (s *YAMLStore) flushLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return errors.Wrap(err, "encode settings")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create settings dir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return errors.Wrap(err, "create temp settings")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write settings")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close settings")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "replace settings %s", s.path)
	}
	return nil
}
