// internal/platform/registry/module_registry_test.go
package registry

import (
	"errors"
	"testing"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
	"autoingest/internal/testutil"
)

func TestModuleRegistry_Register(t *testing.T) {
	registry := NewModuleRegistry(logx.NewNop())

	err := registry.Register(dsFactory("Recent Activity", nil), dsDescriptor("Recent Activity"))
	testutil.AssertNoError(t, err, "register should succeed")
	testutil.AssertTrue(t, registry.IsRegistered("Recent Activity"), "module should be registered")

	err = registry.Register(dsFactory("Recent Activity", nil), dsDescriptor("Recent Activity"))
	testutil.AssertErrorIs(t, err, domain.ErrDuplicateModule, "duplicate registration")

	err = registry.Register(dsFactory("", nil), dsDescriptor(""))
	testutil.AssertError(t, err, "empty name")

	err = registry.Register(nil, dsDescriptor("nil factory"))
	testutil.AssertError(t, err, "nil factory")

	err = registry.Register(dsFactory("bad", nil), ports.ModuleDescriptor{Name: "bad", Tier: "image"})
	testutil.AssertErrorIs(t, err, domain.ErrInvalidTier, "invalid tier")
}

func TestModuleRegistry_EnumerateKeepsRegistrationOrder(t *testing.T) {
	registry := NewModuleRegistry(logx.NewNop())
	for _, name := range testutil.FixtureModuleNames {
		testutil.AssertNoError(t, registry.Register(fileFactory(name), fileDescriptor(name)), "register "+name)
	}

	descs := registry.Enumerate()
	names := make([]string, 0, len(descs))
	for _, d := range descs {
		names = append(names, d.Name)
	}
	testutil.AssertStrings(t, names, testutil.FixtureModuleNames, "enumerate order")
	testutil.AssertStrings(t, registry.Names(), testutil.FixtureModuleNames, "names order")
}

func TestModuleRegistry_InstanceIsSingleton(t *testing.T) {
	registry := NewModuleRegistry(logx.NewNop())
	builds := 0
	_ = registry.Register(dsFactory("Recent Activity", &builds), dsDescriptor("Recent Activity"))

	a, err := registry.Instance("Recent Activity")
	testutil.AssertNoError(t, err, "first instance")
	b, _ := registry.Instance("Recent Activity")
	registry.Snapshot()

	testutil.AssertEqual(t, builds, 1, "factory invoked once")
	testutil.AssertTrue(t, a.DataSource == b.DataSource, "same instance")

	_, err = registry.Instance("missing")
	testutil.AssertErrorIs(t, err, domain.ErrUnknownModule, "unknown module")
}

func TestModuleRegistry_TierMismatch(t *testing.T) {
	registry := NewModuleRegistry(logx.NewNop())
	// factory de file module declarado como data-source tier
	_ = registry.Register(fileFactory("Exif Parser"), dsDescriptor("Exif Parser"))

	_, err := registry.Instance("Exif Parser")
	testutil.AssertErrorIs(t, err, domain.ErrTierMismatch, "tier mismatch")

	snap := registry.Snapshot()
	testutil.AssertLen(t, snap.Names(), 0, "mismatched module excluded from snapshot")
	testutil.AssertErrorIs(t, snap.Failed()["Exif Parser"], domain.ErrTierMismatch, "failure recorded")
}

func TestSnapshot_Resolve(t *testing.T) {
	registry := NewModuleRegistry(logx.NewNop())
	_ = registry.Register(dsFactory("Recent Activity", nil), dsDescriptor("Recent Activity"))
	_ = registry.Register(fileFactory("Exif Parser"), fileDescriptor("Exif Parser"))

	snap := registry.Snapshot()

	// registros posteriores no afectan al snapshot
	_ = registry.Register(fileFactory("Hash Lookup"), fileDescriptor("Hash Lookup"))

	modules, unknown := snap.Resolve([]string{"Exif Parser", "Hash Lookup", "Recent Activity", "Exif Parser", "Nope"})
	testutil.AssertEqual(t, len(modules), 2, "resolved modules")
	testutil.AssertEqual(t, modules[0].Name(), "Exif Parser", "selection order kept")
	testutil.AssertEqual(t, modules[0].Tier(), domain.TierFile, "file tier")
	testutil.AssertNotNil(t, modules[0].File, "file module set")
	testutil.AssertEqual(t, modules[1].Tier(), domain.TierDataSource, "data source tier")
	testutil.AssertStrings(t, unknown, []string{"Hash Lookup", "Nope"}, "unknown names")
}

func TestModuleRegistry_FactoryError(t *testing.T) {
	registry := NewModuleRegistry(logx.NewNop())
	boom := errors.New("missing helper binary")
	_ = registry.Register(func() (ports.Module, error) { return nil, boom }, dsDescriptor("Broken"))

	_, err := registry.Instance("Broken")
	testutil.AssertErrorIs(t, err, boom, "factory error wrapped")

	registry.Clear()
	testutil.AssertFalse(t, registry.IsRegistered("Broken"), "cleared")
}
