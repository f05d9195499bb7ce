// internal/platform/registry/mocks_test.go
package registry

import (
	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
)

type stubModule struct{ name string }

func (m *stubModule) Name() string                { return m.name }
func (m *stubModule) Init(ports.InitContext) error { return nil }
func (m *stubModule) Complete() error             { return nil }
func (m *stubModule) Stop() error                 { return nil }

type stubDataSourceModule struct{ stubModule }

func (m *stubDataSourceModule) Process(*ports.PipelineContext, *domain.DataSource, *domain.CancellationToken) error {
	return nil
}

type stubFileModule struct{ stubModule }

func (m *stubFileModule) Process(*ports.PipelineContext, *domain.File, *domain.CancellationToken) (domain.ModuleResult, error) {
	return domain.ModuleResultOK, nil
}

func dsDescriptor(name string) ports.ModuleDescriptor {
	return ports.ModuleDescriptor{Name: name, Version: "1.0", Tier: domain.TierDataSource}
}

func fileDescriptor(name string) ports.ModuleDescriptor {
	return ports.ModuleDescriptor{Name: name, Version: "1.0", Tier: domain.TierFile}
}

func dsFactory(name string, builds *int) ports.ModuleFactory {
	return func() (ports.Module, error) {
		if builds != nil {
			*builds++
		}
		return &stubDataSourceModule{stubModule{name: name}}, nil
	}
}

func fileFactory(name string) ports.ModuleFactory {
	return func() (ports.Module, error) {
		return &stubFileModule{stubModule{name: name}}, nil
	}
}
