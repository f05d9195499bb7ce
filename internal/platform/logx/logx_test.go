// internal/platform/logx/logx_test.go
package logx

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	logger := New()
	if logger == nil {
		t.Fatal("New() should return a logger, got nil")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"dbg", LevelDebug},
		{"  debug  ", LevelDebug},

		{"info", LevelInfo},
		{"inf", LevelInfo},
		{"", LevelInfo}, // empty defaults to Info

		{"warn", LevelWarn},
		{"Warning", LevelWarn},

		{"err", LevelError},
		{"ERROR", LevelError},

		// Invalid defaults to Info
		{"invalid", LevelInfo},
		{"garbage", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestKVPairs(t *testing.T) {
	tests := []struct {
		name     string
		input    []any
		expected []string
	}{
		{
			name:     "empty input",
			input:    []any{},
			expected: []string{},
		},
		{
			name:     "multiple pairs",
			input:    []any{"module", "exif", "files", 3},
			expected: []string{"module=exif", "files=3"},
		},
		{
			name:     "odd number of elements",
			input:    []any{"module", "exif", "ds"},
			expected: []string{"module=exif", "ds=(missing)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := kvPairs(tt.input...)

			if len(result) != len(tt.expected) {
				t.Fatalf("expected %d pairs, got %d", len(tt.expected), len(result))
			}
			for i, exp := range tt.expected {
				if result[i] != exp {
					t.Errorf("pair %d: expected %q, got %q", i, exp, result[i])
				}
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelDebug)

	scoped := logger.With("component", "scheduler", "ds", "img-1")
	scoped.Info("task admitted")
	logger.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "component=scheduler") || !strings.Contains(lines[0], "ds=img-1") {
		t.Errorf("scoped line missing fields: %s", lines[0])
	}
	if strings.Contains(lines[1], "component=scheduler") {
		t.Errorf("parent logger should not inherit scope: %s", lines[1])
	}
}

func TestLogger_Tags(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelDebug)

	logger.Debug("debug message", "key", "value")
	logger.Warn("warning message", "enabled", true)
	logger.Err(errors.New("init failed"), "module", "exif")

	output := buf.String()
	for _, want := range []string{"DBG debug message key=value", "WRN warning message enabled=true", "ERR error=init failed module=exif"} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q, got: %s", want, output)
		}
	}
	if strings.Contains(output, "  ") {
		t.Errorf("output should not contain double spaces: %s", output)
	}
}

func TestLogger_Err_Nil(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelDebug)

	logger.Err(nil, "source", "database")

	if buf.String() != "" {
		t.Errorf("nil error should not log anything, got: %s", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		want  []string
		skip  []string
	}{
		{"debug", LevelDebug, []string{"DBG", "INF", "WRN", "ERR"}, nil},
		{"info", LevelInfo, []string{"INF", "WRN", "ERR"}, []string{"DBG"}},
		{"warn", LevelWarn, []string{"WRN", "ERR"}, []string{"DBG", "INF"}},
		{"error", LevelError, []string{"ERR"}, []string{"DBG", "INF", "WRN"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, tt.level)

			logger.Debug("debug")
			logger.Info("info")
			logger.Warn("warn")
			logger.Err(errors.New("error"))

			output := buf.String()
			for _, tag := range tt.want {
				if !strings.Contains(output, tag) {
					t.Errorf("output should contain %s at level %v, got: %s", tag, tt.level, output)
				}
			}
			for _, tag := range tt.skip {
				if strings.Contains(output, tag) {
					t.Errorf("output should NOT contain %s at level %v, got: %s", tag, tt.level, output)
				}
			}
		})
	}
}

func TestLogger_SetLevelPropagatesToDerived(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelInfo)
	child := logger.With("component", "bus")

	logger.SetLevel(LevelError)
	child.Info("hidden")

	if buf.Len() != 0 {
		t.Errorf("derived logger should follow parent level, got: %s", buf.String())
	}
}

func TestLogger_ThreadSafety(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelInfo)

	var wg sync.WaitGroup
	iterations := 100

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			scoped := logger.With("worker", id)
			for j := 0; j < iterations; j++ {
				scoped.Info("concurrent log", "iteration", j)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 10*iterations {
		t.Errorf("expected %d log lines, got %d", 10*iterations, len(lines))
	}
}

func TestNew_WithEnv(t *testing.T) {
	t.Setenv("AUTOINGEST_LOG_LEVEL", "warn")

	impl := New().(*simpleLogger)
	if Level(impl.lvl.Load()) != LevelWarn {
		t.Errorf("expected level warn, got %v", Level(impl.lvl.Load()))
	}
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Info("ignored")
	l.Err(errors.New("ignored"))
	if l.With("k", "v") == nil {
		t.Error("With should return a logger")
	}
}
