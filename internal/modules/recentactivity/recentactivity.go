// internal/modules/recentactivity/recentactivity.go
package recentactivity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
	"autoingest/internal/platform/registry"
)

const (
	// ModuleName nombre estable del módulo
	ModuleName = "Recent Activity"
	// ModuleVersion versión del módulo
	ModuleVersion = "1.0"

	// attrSource fuente declarada en cada atributo
	attrSource = "RecentActivity"
	// programName navegador al que pertenecen los artefactos extraídos
	programName = "Internet Explorer"
)

// extraction describe una categoría de artefactos: qué archivos buscar y
// cómo convertir cada uno en atributos.
type extraction struct {
	label       string
	kind        domain.FindingKind
	namePattern string
	pathPattern string
	attributes  func(f *domain.File) ([]domain.Attribute, error)
}

// Module extrae actividad reciente de la imagen completa: favoritos y cookies
// de Internet Explorer y documentos abiertos recientemente.
type Module struct {
	services ports.Services
	logger   logx.Logger
}

var _ ports.DataSourceModule = (*Module)(nil)

// New crea el módulo.
func New() *Module {
	return &Module{logger: logx.NewNop()}
}

// Descriptor describe el módulo para el registry.
func Descriptor() ports.ModuleDescriptor {
	return ports.ModuleDescriptor{
		Name:        ModuleName,
		Version:     ModuleVersion,
		Description: "Extracts recent user activity, such as browser bookmarks, cookies and recent documents.",
		Tier:        domain.TierDataSource,
	}
}

// Register agrega el módulo al registry.
func Register(r *registry.ModuleRegistry) error {
	return r.Register(func() (ports.Module, error) { return New(), nil }, Descriptor())
}

// Name implementa ports.Module.
func (m *Module) Name() string { return ModuleName }

// Init implementa ports.Module.
func (m *Module) Init(ic ports.InitContext) error {
	if ic.Services == nil {
		return errors.New("recent activity: services are required")
	}
	m.services = ic.Services
	m.logger = ic.Services.Logger(ModuleName)
	return nil
}

// Process implementa ports.DataSourceModule. Los errores por archivo se
// acumulan y se publican en el inbox al final; no abortan la extracción.
func (m *Module) Process(_ *ports.PipelineContext, ds *domain.DataSource, token *domain.CancellationToken) error {
	start := time.Now()
	var failures []string

	for _, ex := range m.extractions() {
		if token.IsCancelled() {
			break
		}
		failures = append(failures, m.extract(ds, token, ex)...)
	}

	if len(failures) > 0 {
		m.services.PostMessage(ports.SeverityError, ModuleName,
			fmt.Sprintf("%d errors while extracting recent activity", len(failures)),
			strings.Join(failures, "\n"))
	}

	m.logger.Info("recent activity extraction finished",
		"data_source", ds.ID,
		"errors", len(failures),
		"duration", time.Since(start).String(),
	)
	return nil
}

// Complete implementa ports.Module.
func (m *Module) Complete() error { return nil }

// Stop implementa ports.Module.
func (m *Module) Stop() error {
	m.logger.Info("recent activity extraction stopped")
	return nil
}

func (m *Module) extractions() []extraction {
	return []extraction{
		{
			label:       "Internet Explorer bookmarks",
			kind:        domain.FindingKindWebBookmark,
			namePattern: "%.url",
			pathPattern: "Favorites",
			attributes:  bookmarkAttributes,
		},
		{
			label:       "Internet Explorer cookies",
			kind:        domain.FindingKindWebCookie,
			namePattern: "%.txt",
			pathPattern: "Cookies",
			attributes:  cookieAttributes,
		},
		{
			label:       "recent documents",
			kind:        domain.FindingKindRecentObject,
			namePattern: "%.lnk",
			pathPattern: "Recent",
			attributes:  recentDocumentAttributes,
		},
	}
}

// extract procesa una categoría y retorna los errores encontrados.
// Publica un único ModuleDataEvent al final si hubo candidatos.
func (m *Module) extract(ds *domain.DataSource, token *domain.CancellationToken, ex extraction) []string {
	var failures []string
	found, written := 0, 0

	files, errCh := m.services.Files().FindFiles(token.Context(), ds, ex.namePattern, ex.pathPattern)
	for f := range files {
		if token.IsCancelled() {
			break
		}
		found++
		if f.Size == 0 {
			continue
		}

		attrs, err := ex.attributes(f)
		if errors.Is(err, errSkipFile) {
			continue
		}
		if err != nil {
			m.logger.Warn("failed to parse file", "category", ex.label, "file", f.Path(), "error", err.Error())
			failures = append(failures, fmt.Sprintf("error parsing %s file %s", ex.label, f.Name))
			continue
		}
		if err := m.write(f, ex.kind, attrs); err != nil {
			failures = append(failures, fmt.Sprintf("error saving %s from %s", ex.label, f.Name))
			continue
		}
		written++
	}

	if err := <-errCh; err != nil && !token.IsCancelled() {
		m.logger.Warn("failed to search files", "category", ex.label, "error", err.Error())
		failures = append(failures, "error getting "+ex.label)
	}

	if found == 0 {
		m.logger.Debug("no files found", "category", ex.label, "data_source", ds.ID)
		return failures
	}

	m.services.FireDataEvent(ports.ModuleDataEvent{
		Module:       ModuleName,
		ArtifactKind: ex.kind,
		Count:        written,
	})
	return failures
}

// write crea el finding; el sink ya registra sus propios errores.
func (m *Module) write(f *domain.File, kind domain.FindingKind, attrs []domain.Attribute) error {
	h, err := m.services.Sink().NewFinding(f, kind)
	if err != nil {
		return err
	}
	return h.AddAttributes(attrs)
}

// fileTime retorna el timestamp del archivo en segundos unix, 0 si se desconoce.
func fileTime(f *domain.File) int64 {
	if f.ModTime.IsZero() {
		return 0
	}
	return f.ModTime.Unix()
}
