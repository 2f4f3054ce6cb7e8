package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestBuildWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lattice.log")

	logger, err := Build(Config{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	logger.Named("pricer").Debug("lattice factors")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"msg":"lattice factors"`) || !strings.Contains(line, `"logger":"pricer"`) {
		t.Errorf("unexpected log line: %s", line)
	}
}

func TestBuildRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lattice.log")

	logger, err := Build(Config{Level: "warn", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	_ = logger.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Error("info line written at warn level")
	}
	if !strings.Contains(string(data), "shown") {
		t.Error("warn line missing")
	}
}

func TestBuildFailsOnUnwritableOutput(t *testing.T) {
	_, err := Build(Config{Level: "info", Output: filepath.Join(t.TempDir(), "missing", "x.log")})
	if err == nil {
		t.Fatal("expected error opening log file in missing directory")
	}
}

func TestBuildRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown level", Config{Level: "loud", Output: "stderr"}},
		{"unknown format", Config{Level: "info", Format: "xml", Output: "stderr"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSetLevelReachesNamedLoggers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lattice.log")
	if err := Initialize(Config{Level: "warn", Format: "json", Output: path}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer func() { _ = Initialize(DefaultConfig()) }()

	pricer := Named("pricer")
	pricer.Debug("before")
	if Enabled(zapcore.DebugLevel) {
		t.Fatal("debug enabled at warn level")
	}

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	pricer.Debug("after")
	Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "before") || !strings.Contains(string(data), "after") {
		t.Errorf("unexpected log contents: %s", data)
	}
	if err := SetLevel("loud"); err == nil {
		t.Error("SetLevel accepted an unknown level")
	}
}

func TestInitializeKeepsLoggerOnError(t *testing.T) {
	before := Logger
	if err := Initialize(Config{Level: "info", Format: "xml"}); err == nil {
		t.Fatal("expected error")
	}
	if Logger != before {
		t.Error("global logger replaced by a failed Initialize")
	}
}
