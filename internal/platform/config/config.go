// internal/platform/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"autoingest/internal/platform/errors"
)

type Config struct {
	// Ingest
	Images             []string      `yaml:"images"`
	Modules            []string      `yaml:"modules"`
	FileWorkers        int           `yaml:"file_workers"`
	DataEventBatch     int           `yaml:"data_event_batch"`
	ProcessUnallocated bool          `yaml:"process_unallocated"`
	Timeout            time.Duration `yaml:"timeout"` // 0 = sin timeout
	SelectionContext   string        `yaml:"selection_context"`

	// Storage
	WorkDir      string `yaml:"work_dir"`
	DatabasePath string `yaml:"database_path"`
	SettingsPath string `yaml:"settings_path"`
	ReportDir    string `yaml:"report_dir"`

	// Resources
	FreeSpaceThreshold uint64        `yaml:"free_space_threshold"`
	MonitorInterval    time.Duration `yaml:"monitor_interval"`

	// Observability
	LogLevel     string `yaml:"log_level"`
	Quiet        bool   `yaml:"quiet"`
	Progress     string `yaml:"progress"` // pretty | text | json
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// CLI-only
	ConfigPath   string `yaml:"-"`
	PrintVersion bool   `yaml:"-"`
	PrintHelp    bool   `yaml:"-"`

	// UnallocatedSet indica que ProcessUnallocated vino de file/env/flag y no
	// debe reemplazarse por la selección persistida.
	UnallocatedSet bool `yaml:"-"`
}

// DefaultConfig retorna una configuración por defecto.
func DefaultConfig() Config {
	return Config{
		FileWorkers:        4,
		DataEventBatch:     100,
		ProcessUnallocated: false,
		Timeout:            0,
		SelectionContext:   "autoingest",

		WorkDir:      "autoingest_work",
		DatabasePath: "",
		SettingsPath: "",
		ReportDir:    "",

		FreeSpaceThreshold: 1 << 30,
		MonitorInterval:    60 * time.Second,

		LogLevel: "info",
		Progress: "pretty",
	}
}

// Load inicializa la configuración: defaults -> archivo YAML -> ENV -> FLAGS
// (flags tienen prioridad). args no incluye el nombre del programa.
func Load(args []string) (Config, error) {
	cfg := DefaultConfig()

	fs, fv := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	// Archivo de configuración
	cfg.ConfigPath = getenv("AUTOINGEST_CONFIG", "")
	if fs.Changed("config") {
		cfg.ConfigPath = fv.configPath
	}
	if cfg.ConfigPath != "" {
		if err := loadFromFile(&cfg, cfg.ConfigPath); err != nil {
			return cfg, err
		}
	}

	// Cargar desde ENV
	loadFromEnv(&cfg)

	// Flags (overrides ENV)
	applyFlags(&cfg, fs, fv)

	// Normalizar
	normalize(&cfg)

	return cfg, nil
}

// loadFromFile carga un archivo YAML sobre cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	if _, ok := raw["process_unallocated"]; ok {
		cfg.UnallocatedSet = true
	}
	return nil
}

// loadFromEnv carga configuración desde variables de entorno.
func loadFromEnv(cfg *Config) {
	if v := getenv("AUTOINGEST_IMAGES", ""); v != "" {
		cfg.Images = splitList(v)
	}
	if v := getenv("AUTOINGEST_MODULES", ""); v != "" {
		cfg.Modules = splitList(v)
	}
	if v := getenv("AUTOINGEST_FILE_WORKERS", ""); v != "" {
		cfg.FileWorkers = parseInt(v, cfg.FileWorkers)
	}
	if v := getenv("AUTOINGEST_DATA_EVENT_BATCH", ""); v != "" {
		cfg.DataEventBatch = parseInt(v, cfg.DataEventBatch)
	}
	if v := getenv("AUTOINGEST_PROCESS_UNALLOCATED", ""); v != "" {
		cfg.ProcessUnallocated = parseBool(v)
		cfg.UnallocatedSet = true
	}
	if v := getenv("AUTOINGEST_TIMEOUT", ""); v != "" {
		cfg.Timeout = parseDuration(v, cfg.Timeout)
	}
	if v := getenv("AUTOINGEST_WORK_DIR", ""); v != "" {
		cfg.WorkDir = v
	}
	if v := getenv("AUTOINGEST_DATABASE", ""); v != "" {
		cfg.DatabasePath = v
	}
	if v := getenv("AUTOINGEST_SETTINGS", ""); v != "" {
		cfg.SettingsPath = v
	}
	if v := getenv("AUTOINGEST_REPORT_DIR", ""); v != "" {
		cfg.ReportDir = v
	}
	if v := getenv("AUTOINGEST_FREE_SPACE_THRESHOLD", ""); v != "" {
		cfg.FreeSpaceThreshold = parseUint(v, cfg.FreeSpaceThreshold)
	}
	if v := getenv("AUTOINGEST_MONITOR_INTERVAL", ""); v != "" {
		cfg.MonitorInterval = parseDuration(v, cfg.MonitorInterval)
	}
	if v := getenv("AUTOINGEST_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("AUTOINGEST_QUIET", ""); v != "" {
		cfg.Quiet = parseBool(v)
	}
	if v := getenv("AUTOINGEST_PROGRESS", ""); v != "" {
		cfg.Progress = v
	}
	if v := getenv("AUTOINGEST_OTLP_ENDPOINT", ""); v != "" {
		cfg.OTLPEndpoint = v
	}
}

// flagValues recibe los valores parseados antes de aplicarlos sobre cfg.
type flagValues struct {
	configPath   string
	images       []string
	modules      string
	fileWorkers  int
	batch        int
	unalloc      bool
	timeout      time.Duration
	context      string
	workDir      string
	database     string
	settings     string
	reportDir    string
	threshold    uint64
	interval     time.Duration
	logLevel     string
	quiet        bool
	progress     string
	otlpEndpoint string
	printVersion bool
	printHelp    bool
}

func newFlagSet() (*pflag.FlagSet, *flagValues) {
	d := DefaultConfig()
	fv := &flagValues{}
	fs := pflag.NewFlagSet("autoingest", pflag.ContinueOnError)
	fs.Usage = func() {}

	fs.StringVarP(&fv.configPath, "config", "c", "", "YAML configuration file")
	fs.StringSliceVarP(&fv.images, "image", "i", nil, "Extracted image directory (repeatable)")
	fs.StringVarP(&fv.modules, "modules", "m", "", `Modules to run, e.g. "Recent Activity, Exif Parser"`)
	fs.IntVarP(&fv.fileWorkers, "workers", "w", d.FileWorkers, "File pipeline pool size")
	fs.IntVar(&fv.batch, "event-batch", d.DataEventBatch, "Findings per data event")
	fs.BoolVar(&fv.unalloc, "unallocated", d.ProcessUnallocated, "Process unallocated space files")
	fs.DurationVarP(&fv.timeout, "timeout", "T", d.Timeout, "Global timeout (0 = none)")
	fs.StringVar(&fv.context, "context", d.SelectionContext, "Name under which the module selection is persisted")
	fs.StringVar(&fv.workDir, "work-dir", d.WorkDir, "Working directory (free space is monitored here)")
	fs.StringVar(&fv.database, "db", d.DatabasePath, "SQLite blackboard path (default <work-dir>/blackboard.db)")
	fs.StringVar(&fv.settings, "settings", d.SettingsPath, "Module settings file (default <work-dir>/settings.yaml)")
	fs.StringVarP(&fv.reportDir, "out", "o", d.ReportDir, "Directory for the JSON report (empty = none)")
	fs.Uint64Var(&fv.threshold, "min-free", d.FreeSpaceThreshold, "Free bytes required to admit data source tasks")
	fs.DurationVar(&fv.interval, "monitor-interval", d.MonitorInterval, "Free space sampling interval")
	fs.StringVar(&fv.logLevel, "log-level", d.LogLevel, "debug|info|warn|error")
	fs.BoolVarP(&fv.quiet, "quiet", "q", false, "Disable progress UI")
	fs.StringVar(&fv.progress, "progress", d.Progress, "Progress output: pretty|text|json")
	fs.StringVar(&fv.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint for metrics (optional)")
	fs.BoolVarP(&fv.printVersion, "version", "v", false, "Print version and exit")
	fs.BoolVarP(&fv.printHelp, "help", "h", false, "Show help")

	return fs, fv
}

// applyFlags copia sobre cfg solo los flags indicados explícitamente.
func applyFlags(cfg *Config, fs *pflag.FlagSet, fv *flagValues) {
	images := append([]string(nil), fv.images...)
	images = append(images, fs.Args()...)
	if len(images) > 0 {
		cfg.Images = images
	}
	if fs.Changed("modules") {
		cfg.Modules = splitList(fv.modules)
	}
	if fs.Changed("workers") {
		cfg.FileWorkers = fv.fileWorkers
	}
	if fs.Changed("event-batch") {
		cfg.DataEventBatch = fv.batch
	}
	if fs.Changed("unallocated") {
		cfg.ProcessUnallocated = fv.unalloc
		cfg.UnallocatedSet = true
	}
	if fs.Changed("timeout") {
		cfg.Timeout = fv.timeout
	}
	if fs.Changed("context") {
		cfg.SelectionContext = fv.context
	}
	if fs.Changed("work-dir") {
		cfg.WorkDir = fv.workDir
	}
	if fs.Changed("db") {
		cfg.DatabasePath = fv.database
	}
	if fs.Changed("settings") {
		cfg.SettingsPath = fv.settings
	}
	if fs.Changed("out") {
		cfg.ReportDir = fv.reportDir
	}
	if fs.Changed("min-free") {
		cfg.FreeSpaceThreshold = fv.threshold
	}
	if fs.Changed("monitor-interval") {
		cfg.MonitorInterval = fv.interval
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if fs.Changed("quiet") {
		cfg.Quiet = fv.quiet
	}
	if fs.Changed("progress") {
		cfg.Progress = fv.progress
	}
	if fs.Changed("otlp-endpoint") {
		cfg.OTLPEndpoint = fv.otlpEndpoint
	}
	cfg.PrintVersion = fv.printVersion
	cfg.PrintHelp = fv.printHelp
}

func normalize(c *Config) {
	for i, img := range c.Images {
		c.Images[i] = filepath.Clean(strings.TrimSpace(img))
	}
	if c.DataEventBatch <= 0 {
		c.DataEventBatch = 100
	}
	if c.Timeout < 0 {
		c.Timeout = 0
	}
	if c.WorkDir == "" {
		c.WorkDir = "autoingest_work"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.WorkDir, "blackboard.db")
	}
	if c.SettingsPath == "" {
		c.SettingsPath = filepath.Join(c.WorkDir, "settings.yaml")
	}
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = 60 * time.Second
	}
	if c.SelectionContext == "" {
		c.SelectionContext = "autoingest"
	}
	c.Progress = strings.ToLower(strings.TrimSpace(c.Progress))
	if c.Progress == "" {
		c.Progress = "pretty"
	}
}

// Validate verifica que la configuración permita correr un ingest.
func (c Config) Validate() error {
	if len(c.Images) == 0 {
		return fmt.Errorf("%w: at least one image directory is required", errors.ErrInvalidInput)
	}
	if c.FileWorkers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", errors.ErrInvalidInput, c.FileWorkers)
	}
	switch c.Progress {
	case "", "pretty", "text", "json":
	default:
		return fmt.Errorf("%w: progress must be pretty, text or json, got %q", errors.ErrInvalidInput, c.Progress)
	}
	for _, img := range c.Images {
		info, err := os.Stat(img)
		if err != nil {
			return errors.Wrapf(err, "image %s", img)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: image %s is not a directory", errors.ErrInvalidInput, img)
		}
	}
	return nil
}

// ToJSON serializa la configuración a JSON (útil para debugging).
func (c Config) ToJSON() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

func parseUint(v string, def uint64) uint64 {
	u, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return def
	}
	return u
}

// parseDuration acepta "30s" o segundos enteros.
func parseDuration(v string, def time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if s, err := strconv.Atoi(v); err == nil {
		return time.Duration(s) * time.Second
	}
	return def
}

// splitList divide "A, B" o "A,B" y descarta vacíos.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
