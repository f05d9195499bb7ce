// internal/core/usecases/module_sessions.go
package usecases

import (
	"sync"

	"autoingest/internal/core/ports"
)

// moduleSessions comparte las instancias file-tier entre pipelines vivos.
// El registry entrega una instancia por nombre, así que Init corre cuando el
// primer pipeline la toma y Complete o Stop cuando la suelta el último.
type moduleSessions struct {
	mu       sync.Mutex
	sessions map[string]*moduleSession
}

type moduleSession struct {
	mu   sync.Mutex
	refs int
}

func newModuleSessions() *moduleSessions {
	return &moduleSessions{sessions: make(map[string]*moduleSession)}
}

func (r *moduleSessions) session(name string) *moduleSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[name]
	if !ok {
		s = &moduleSession{}
		r.sessions[name] = s
	}
	return s
}

// acquire toma una referencia al módulo, inicializándolo si nadie lo usa.
// Si Init falla no queda referencia y el próximo pipeline reintenta.
func (r *moduleSessions) acquire(m ports.TieredModule, ic ports.InitContext) error {
	s := r.session(m.Name())
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		if err := callHook(func() error { return m.Base().Init(ic) }); err != nil {
			return err
		}
	}
	s.refs++
	return nil
}

// release suelta una referencia. La última corre Stop si el pipeline que la
// suelta fue cancelado y Complete en otro caso. last indica si corrió un hook.
func (r *moduleSessions) release(m ports.TieredModule, cancelled bool) (last bool, err error) {
	s := r.session(m.Name())
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		return false, nil
	}
	s.refs--
	if s.refs > 0 {
		return false, nil
	}
	if cancelled {
		return true, callHook(m.Base().Stop)
	}
	return true, callHook(m.Base().Complete)
}
