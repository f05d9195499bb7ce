// internal/core/ports/ports_test.go
package ports

import (
	"context"
	"testing"

	"autoingest/internal/core/domain"
	"autoingest/internal/testutil"
)

type baseModule struct{ name string }

func (m baseModule) Name() string           { return m.name }
func (m baseModule) Init(InitContext) error { return nil }
func (m baseModule) Complete() error        { return nil }
func (m baseModule) Stop() error            { return nil }

type dsModule struct{ baseModule }

func (dsModule) Process(*PipelineContext, *domain.DataSource, *domain.CancellationToken) error {
	return nil
}

type fileModule struct{ baseModule }

func (fileModule) Process(*PipelineContext, *domain.File, *domain.CancellationToken) (domain.ModuleResult, error) {
	return domain.ModuleResultOK, nil
}

func TestNewTieredModule(t *testing.T) {
	dsDesc := ModuleDescriptor{Name: "ds", Tier: domain.TierDataSource}
	fileDesc := ModuleDescriptor{Name: "file", Tier: domain.TierFile}

	tm, err := NewTieredModule(dsDesc, dsModule{baseModule{"ds"}})
	testutil.AssertNoError(t, err, "datasource module")
	testutil.AssertTrue(t, tm.DataSource != nil && tm.File == nil, "datasource slot")
	testutil.AssertEqual(t, tm.Tier(), domain.TierDataSource, "tier")
	testutil.AssertEqual(t, tm.Base().Name(), "ds", "base")

	tm, err = NewTieredModule(fileDesc, fileModule{baseModule{"file"}})
	testutil.AssertNoError(t, err, "file module")
	testutil.AssertTrue(t, tm.File != nil && tm.DataSource == nil, "file slot")

	_, err = NewTieredModule(fileDesc, dsModule{baseModule{"file"}})
	testutil.AssertErrorIs(t, err, domain.ErrTierMismatch, "declared file, implements datasource")

	_, err = NewTieredModule(ModuleDescriptor{Name: "x", Tier: "volume"}, baseModule{"x"})
	testutil.AssertErrorIs(t, err, domain.ErrInvalidTier, "unknown tier")

	_, err = NewTieredModule(ModuleDescriptor{Tier: domain.TierFile}, fileModule{})
	testutil.AssertError(t, err, "empty name")
}

func TestPipelineContext(t *testing.T) {
	ds := domain.NewDataSource("img-1", "img", "/x")
	f := domain.NewFile("img-1:a", "img-1", "", "a", 1, "", nil)
	token := domain.NewCancellationToken(context.Background())
	results := NewResultTable()

	modules := []string{"A", "B"}
	pc := NewFilePipelineContext(domain.NewFileTask(ds, f), modules, token, nil, results)
	modules[0] = "changed"

	testutil.AssertStrings(t, pc.Modules(), []string{"A", "B"}, "modules copied at construction")
	testutil.AssertEqual(t, pc.DataSource(), ds, "data source")

	_, ok := pc.ModuleResult("A")
	testutil.AssertFalse(t, ok, "no result yet")
	results.Record("A", domain.ModuleResultError)
	res, ok := pc.ModuleResult("A")
	testutil.AssertTrue(t, ok, "result visible")
	testutil.AssertEqual(t, res, domain.ModuleResultError, "recorded result")

	testutil.AssertFalse(t, pc.IsCancelled(), "not cancelled")
	token.Cancel("stop")
	testutil.AssertTrue(t, pc.IsCancelled(), "cancelled through token")

	dsPC := NewPipelineContext(domain.NewDataSourceTask(ds, "A"), nil, nil, nil)
	_, ok = dsPC.ModuleResult("A")
	testutil.AssertFalse(t, ok, "datasource context has no result table")
	testutil.AssertFalse(t, dsPC.IsCancelled(), "nil token is never cancelled")
}
