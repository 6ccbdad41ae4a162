package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBootstrapInstallsDefaultsIntoEmptyStore(t *testing.T) {
	store := NewMemoryStore()
	if err := Bootstrap(context.Background(), store, ""); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	list, err := store.ListRules(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != len(DefaultRules()) {
		t.Fatalf("installed %d rules, want %d", len(list), len(DefaultRules()))
	}
	for _, want := range []string{"high_error_rate", "slow_response_time", "traffic_spike"} {
		r, err := store.GetRule(context.Background(), want)
		if err != nil {
			t.Fatalf("default rule %s missing: %v", want, err)
		}
		if !r.Enabled {
			t.Fatalf("default rule %s not enabled", want)
		}
	}
}

func TestBootstrapNeverOverwritesExistingRules(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	custom := &AlertRule{
		ID:        "high_error_rate",
		Name:      "Tuned error rate",
		Metric:    MetricErrorRate,
		Op:        ">",
		Threshold: 0.20,
		Severity:  "critical",
		Cooldown:  time.Hour,
		Enabled:   false,
	}
	if err := store.UpsertRule(ctx, custom); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := Bootstrap(ctx, store, ""); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	got, err := store.GetRule(ctx, "high_error_rate")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Threshold != 0.20 || got.Enabled || got.Name != "Tuned error rate" {
		t.Fatalf("operator edit overwritten: %+v", got)
	}

	// a non-empty store gets no defaults at all
	list, _ := store.ListRules(ctx)
	if len(list) != 1 {
		t.Fatalf("defaults installed into non-empty store: %d rules", len(list))
	}
}

func TestBootstrapLoadsRulesFromYAMLFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - id: spike_watch
    name: Spike watch
    metric: traffic_spike
    op: ">="
    threshold: 2.5
    severity: medium
    cooldown: 45m
  - id: quiet_hours
    name: Quiet hours
    metric: error_rate
    op: ">"
    threshold: 0.5
    severity: low
    enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewMemoryStore()
	if err := Bootstrap(ctx, store, path); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	spike, err := store.GetRule(ctx, "spike_watch")
	if err != nil {
		t.Fatalf("spike_watch missing: %v", err)
	}
	if spike.Cooldown != 45*time.Minute || spike.Op != ">=" || spike.Threshold != 2.5 {
		t.Fatalf("spike_watch = %+v", spike)
	}
	if !spike.Enabled {
		t.Fatal("enabled should default to true when omitted")
	}

	quiet, err := store.GetRule(ctx, "quiet_hours")
	if err != nil {
		t.Fatalf("quiet_hours missing: %v", err)
	}
	if quiet.Enabled {
		t.Fatal("explicit enabled: false ignored")
	}

	// with a file present the built-in defaults are not installed
	if _, err := store.GetRule(ctx, "high_error_rate"); err == nil {
		t.Fatal("defaults installed alongside config file")
	}
}

func TestBootstrapSkipsInvalidFileRules(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - id: bad_metric
    name: Bad metric
    metric: cpu_load
    op: ">"
    threshold: 1
    severity: high
  - id: good_rule
    name: Good rule
    metric: error_rate
    op: ">"
    threshold: 0.1
    severity: high
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewMemoryStore()
	if err := Bootstrap(ctx, store, path); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	if _, err := store.GetRule(ctx, "bad_metric"); err == nil {
		t.Fatal("invalid rule installed")
	}
	if _, err := store.GetRule(ctx, "good_rule"); err != nil {
		t.Fatalf("valid rule skipped: %v", err)
	}
}

func TestBootstrapMissingFileIsAnError(t *testing.T) {
	store := NewMemoryStore()
	if err := Bootstrap(context.Background(), store, filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing rules file")
	}
	if list, _ := store.ListRules(context.Background()); len(list) != 0 {
		t.Fatalf("rules installed despite file error: %d", len(list))
	}
}
