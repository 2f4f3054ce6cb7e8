package cmd

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "config.json")}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestPriceReferenceScenarioJSON(t *testing.T) {
	out, err := execute(t, "price", "--format", "json")
	if err != nil {
		t.Fatalf("price: %v\n%s", err, out)
	}

	var quote struct {
		Value   float64 `json:"value"`
		Request struct {
			Steps            int     `json:"steps"`
			RiskFreeRate     float64 `json:"risk_free_rate"`
			DividendsPerYear int     `json:"dividends_per_year"`
		} `json:"request"`
	}
	if err := json.Unmarshal([]byte(out), &quote); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if math.Abs(quote.Value-6.065049840701117) > 1e-9 {
		t.Errorf("value = %.15f", quote.Value)
	}
	if quote.Request.Steps != 100 || quote.Request.RiskFreeRate != 0.05 || quote.Request.DividendsPerYear != 4 {
		t.Errorf("config defaults not applied: %+v", quote.Request)
	}
}

func TestConvergeMarkdown(t *testing.T) {
	out, err := execute(t, "converge", "--type", "put", "--underlying", "100", "--strike", "100",
		"--volatility", "0.2", "--maturity", "1", "--dividend-yield", "0", "--dividends-per-year", "1",
		"--from", "50", "--doublings", "1", "--format", "markdown")
	if err != nil {
		t.Fatalf("converge: %v\n%s", err, out)
	}
	for _, want := range []string{"| 50 | 6.434244 |", "| 100 | 6.443275 |"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBookCommand(t *testing.T) {
	desk := filepath.Join("..", "..", "..", "core", "book", "testdata", "desk.yaml")
	out, err := execute(t, "book", desk, "--format", "markdown", "--workers", "2")
	if err != nil {
		t.Fatalf("book: %v\n%s", err, out)
	}
	if !strings.Contains(out, "## Book index-desk") || !strings.Contains(out, "| spx-put | PUT | 3 |") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestBookCommandRejectsMissingFile(t *testing.T) {
	if _, err := execute(t, "book", filepath.Join(t.TempDir(), "absent.hcl")); err == nil {
		t.Error("expected error for missing book")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lattice.json")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--config", path, "config", "init"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	rootCmd.SetArgs([]string{"--config", path, "config", "init"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("second init should refuse to overwrite")
	}

	buf.Reset()
	rootCmd.SetArgs([]string{"--config", path, "config", "show"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(buf.String(), `"default_steps": 100`) {
		t.Errorf("config show output:\n%s", buf.String())
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "option-lattice version ") {
		t.Errorf("version output = %q", out)
	}
}
