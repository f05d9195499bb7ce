// internal/modules/exif/exif.go
package exif

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"

	goexif "github.com/rwcarlsen/goexif/exif"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/eventbus"
	"autoingest/internal/platform/logx"
	"autoingest/internal/platform/registry"
)

const (
	// ModuleName nombre estable del módulo
	ModuleName = "Exif Parser"
	// ModuleVersion versión del módulo
	ModuleVersion = "1.0"
)

// jpegSignature primeros dos bytes de todo JPEG.
var jpegSignature = []byte{0xFF, 0xD8}

// Module extrae metadata EXIF (fecha, GPS, dispositivo) de imágenes JPEG.
// Es file-tier: puede procesar varios archivos a la vez.
type Module struct {
	mu       sync.RWMutex
	services ports.Services
	logger   logx.Logger
	notifier *eventbus.DataEventNotifier
}

var _ ports.FileModule = (*Module)(nil)

// New crea el módulo.
func New() *Module {
	return &Module{logger: logx.NewNop()}
}

// Descriptor describe el módulo para el registry.
func Descriptor() ports.ModuleDescriptor {
	return ports.ModuleDescriptor{
		Name:        ModuleName,
		Version:     ModuleVersion,
		Description: "Ingests .jpg and .jpeg files and retrieves their metadata.",
		Tier:        domain.TierFile,
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
		return errors.New("exif: services are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// un Init repetido no descarta findings aún no notificados
	if m.notifier != nil {
		m.notifier.Flush()
	}
	m.services = ic.Services
	m.logger = ic.Services.Logger(ModuleName)
	m.notifier = eventbus.NotifierFor(ic.Services, ModuleName, domain.FindingKindMetadataExif)
	m.logger.Debug("exif parser initialized")
	return nil
}

func (m *Module) state() (ports.Services, logx.Logger, *eventbus.DataEventNotifier) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.services, m.logger, m.notifier
}

// Process implementa ports.FileModule. Espacio no asignado y formatos no
// soportados se saltan con OK.
func (m *Module) Process(_ *ports.PipelineContext, f *domain.File, _ *domain.CancellationToken) (domain.ModuleResult, error) {
	if f.IsUnallocated() {
		return domain.ModuleResultOK, nil
	}
	if !parsableFormat(f) {
		return domain.ModuleResultOK, nil
	}
	return m.processFile(f), nil
}

func (m *Module) processFile(f *domain.File) domain.ModuleResult {
	services, logger, notifier := m.state()

	rc, err := f.Open()
	if err != nil {
		logger.Warn("failed to open image", "file", f.Path(), "error", err.Error())
		return domain.ModuleResultError
	}
	defer rc.Close()

	x, err := goexif.Decode(rc)
	if x == nil {
		if noMetadata(err) {
			return domain.ModuleResultOK
		}
		logger.Warn("failed to process the image file", "file", f.Path(), "error", err.Error())
		return domain.ModuleResultError
	}
	if err != nil && goexif.IsCriticalError(err) {
		logger.Warn("failed to process the image file", "file", f.Path(), "error", err.Error())
		return domain.ModuleResultError
	}

	attrs := attributesOf(x)
	if len(attrs) == 0 {
		return domain.ModuleResultOK
	}

	// el sink registra sus propios errores
	h, err := services.Sink().NewFinding(f, domain.FindingKindMetadataExif)
	if err != nil {
		return domain.ModuleResultError
	}
	if err := h.AddAttributes(attrs); err != nil {
		return domain.ModuleResultError
	}
	notifier.Record(1)
	return domain.ModuleResultOK
}

// Complete publica el remanente de findings.
func (m *Module) Complete() error {
	_, logger, notifier := m.state()
	if notifier != nil {
		notifier.Flush()
		logger.Info("completed exif parsing", "findings", notifier.Total())
	}
	return nil
}

// Stop implementa ports.Module.
func (m *Module) Stop() error {
	_, logger, _ := m.state()
	logger.Info("exif parsing stopped")
	return nil
}

// attributesOf arma los atributos presentes en x.
func attributesOf(x *goexif.Exif) []domain.Attribute {
	var attrs []domain.Attribute

	if t, err := x.DateTime(); err == nil {
		attrs = append(attrs, domain.NewAttribute(domain.AttrDateTime, ModuleName, t.Unix()))
	}

	if lat, long, err := x.LatLong(); err == nil {
		attrs = append(attrs,
			domain.NewAttribute(domain.AttrGeoLatitude, ModuleName, lat),
			domain.NewAttribute(domain.AttrGeoLongitude, ModuleName, long),
		)
	}

	if tag, err := x.Get(goexif.GPSAltitude); err == nil {
		if rat, err := tag.Rat(0); err == nil {
			alt, _ := rat.Float64()
			attrs = append(attrs, domain.NewAttribute(domain.AttrGeoAltitude, ModuleName, alt))
		}
	}

	if model := stringTag(x, goexif.Model); model != "" {
		attrs = append(attrs, domain.NewAttribute(domain.AttrDeviceModel, ModuleName, model))
	}
	if maker := stringTag(x, goexif.Make); maker != "" {
		attrs = append(attrs, domain.NewAttribute(domain.AttrDeviceMake, ModuleName, maker))
	}

	return attrs
}

func stringTag(x *goexif.Exif, name goexif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

// noMetadata indica que el archivo no tiene segmento EXIF.
func noMetadata(err error) bool {
	return errors.Is(err, io.EOF) || strings.Contains(err.Error(), "exif intro marker")
}

// parsableFormat decide si vale la pena intentar: primero por extensión y,
// si la extensión no es JPEG, por la firma FFD8.
func parsableFormat(f *domain.File) bool {
	ext := f.Extension()
	if ext == "" {
		return false
	}
	if ext == ".jpg" || ext == ".jpeg" {
		return true
	}
	header, err := f.ReadHeader(len(jpegSignature))
	if err != nil {
		return false
	}
	return bytes.Equal(header, jpegSignature)
}
