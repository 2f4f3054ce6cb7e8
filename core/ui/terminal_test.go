package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestTableAlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	table := w.NewTable("Steps", "Value").AlignRight(0, 1)
	table.AddRow("50", "6.434244")
	table.AddRow("800", "6.450726")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Steps │    Value" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "──────┼─────────" {
		t.Errorf("separator = %q", lines[1])
	}
	if lines[2] != "   50 │ 6.434244" {
		t.Errorf("row = %q", lines[2])
	}
}

func TestTableExtraCellsDropped(t *testing.T) {
	var buf bytes.Buffer
	table := NewWriter(&buf, true).NewTable("A")
	table.AddRow("x", "ignored")
	table.Render()

	if strings.Contains(buf.String(), "ignored") {
		t.Errorf("extra cell rendered:\n%s", buf.String())
	}
}

func TestNoColorSuppressesEscapes(t *testing.T) {
	var plain, colored bytes.Buffer
	NewWriter(&plain, true).Warning("q=%.3f outside [0,1]", 1.2)
	NewWriter(&colored, false).Warning("q=%.3f outside [0,1]", 1.2)

	if strings.Contains(plain.String(), "\033[") {
		t.Errorf("no-color output has escapes: %q", plain.String())
	}
	if !strings.Contains(colored.String(), Yellow) {
		t.Errorf("colored output missing yellow: %q", colored.String())
	}
}

func TestVerbosityFiltersInfoAndDebug(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)
	w.SetVerbosity(0)
	w.Info("hidden")
	w.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("quiet writer printed %q", buf.String())
	}

	w.SetVerbosity(2)
	w.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("verbose writer dropped debug line")
	}
}

func TestSummaryRender(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriter(&buf, true).NewSummary("Option Value")
	s.Label = "PUT"
	s.Value = "6.065050"
	s.Details = []string{"steps: 100"}
	s.Duration = 1500 * time.Millisecond
	s.Render()

	out := buf.String()
	for _, want := range []string{"Option Value", "PUT: 6.065050", "steps: 100", "Completed in 1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Microsecond, "< 1ms"},
		{42 * time.Millisecond, "42ms"},
		{2500 * time.Millisecond, "2.5s"},
		{125 * time.Second, "2m 5s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
