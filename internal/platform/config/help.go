// internal/platform/config/help.go
package config

import (
	"fmt"
	"os"
	"runtime"
)

const helpText = `
autoingest - Forensic ingest orchestration engine

USAGE:
  autoingest [options] <image-dir> [<image-dir>...]

IMPORTANT:
  Use double dash (--) for long flag names: --modules, --workers
  Use single dash (-) for short flags: -m, -w

  Module names contain spaces: quote the list.
  ✓  RIGHT:  autoingest -m "Recent Activity, Exif Parser" ./img

CORE OPTIONS:
  -i, --image string          Extracted image directory (repeatable, or positional)
  -m, --modules string        Comma separated module names (default: persisted selection, else all)
  -w, --workers int           File pipeline pool size (default: 4)
      --unallocated           Process files flagged as unallocated space (default: false)
  -T, --timeout duration      Global timeout, 0=no timeout (default: 0)
      --context string        Name under which the module selection is persisted (default: "autoingest")

STORAGE OPTIONS:
      --work-dir string       Working directory (default: "autoingest_work")
      --db string             SQLite blackboard (default: <work-dir>/blackboard.db)
      --settings string       Module settings YAML (default: <work-dir>/settings.yaml)
  -o, --out string            Directory for the JSON report (optional)

RESOURCE OPTIONS:
      --min-free uint         Free bytes required to admit data source tasks (default: 1073741824)
      --monitor-interval dur  Free space sampling interval (default: 60s)
      --event-batch int       Findings per data event (default: 100)

OUTPUT OPTIONS:
  -q, --quiet                 Disable progress UI
      --progress string       pretty|text|json; text and json print one line per update (default: pretty)
      --log-level string      debug|info|warn|error (default: info)
      --otlp-endpoint string  OTLP gRPC endpoint for metrics (optional)

CONFIG:
  -c, --config string         YAML file loaded before ENV and flags

INFO:
  -v, --version               Print version information and exit
  -h, --help                  Show this help message

EXAMPLES:
  All registered modules over one image:
    autoingest ./case01/img

  Selected modules, larger pool:
    autoingest -m "Recent Activity, Exif Parser" -w 8 ./case01/img

  Two images, report to disk:
    autoingest -o ./reports ./case01/img ./case02/img

ENVIRONMENT VARIABLES:
  AUTOINGEST_CONFIG=/path/autoingest.yaml
  AUTOINGEST_IMAGES="./img1, ./img2"
  AUTOINGEST_MODULES="Recent Activity, Exif Parser"
  AUTOINGEST_FILE_WORKERS=8
  AUTOINGEST_PROCESS_UNALLOCATED=true
  AUTOINGEST_TIMEOUT=10m
  AUTOINGEST_WORK_DIR=/path
  AUTOINGEST_DATABASE=/path/blackboard.db
  AUTOINGEST_SETTINGS=/path/settings.yaml
  AUTOINGEST_REPORT_DIR=/path
  AUTOINGEST_FREE_SPACE_THRESHOLD=1073741824
  AUTOINGEST_MONITOR_INTERVAL=60s
  AUTOINGEST_DATA_EVENT_BATCH=100
  AUTOINGEST_LOG_LEVEL=debug
  AUTOINGEST_QUIET=true
  AUTOINGEST_PROGRESS=json
  AUTOINGEST_OTLP_ENDPOINT=localhost:4317

  Note: CLI flags override environment variables, which override the YAML file.
`

// PrintHelp prints the custom help message and exits.
func PrintHelp() {
	fmt.Fprint(os.Stdout, helpText)
	os.Exit(0)
}

// PrintVersion prints version information and exits.
func PrintVersion(version, commit, date string) {
	fmt.Printf("autoingest %s\n", version)
	fmt.Printf("  Commit:  %s\n", commit)
	fmt.Printf("  Built:   %s\n", date)
	fmt.Printf("  Go:      %s\n", runtime.Version())
	os.Exit(0)
}
