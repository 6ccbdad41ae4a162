package rules

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// RuleConfigFile is the YAML structure of the rules bootstrap file.
type RuleConfigFile struct {
	Rules []RuleConfigItem `yaml:"rules"`
}

type RuleConfigItem struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Metric    string  `yaml:"metric"`
	Op        string  `yaml:"op"`
	Threshold float64 `yaml:"threshold"`
	Severity  string  `yaml:"severity"`
	Cooldown  string  `yaml:"cooldown"` // e.g. "15m"
	Enabled   *bool   `yaml:"enabled"`  // nil means enabled
}

// DefaultRules are installed when no rule exists yet and no config file is
// given, so a fresh deployment alerts on the basics out of the box.
func DefaultRules() []*AlertRule {
	return []*AlertRule{
		{ID: "high_error_rate", Name: "High error rate", Metric: MetricErrorRate, Op: ">", Threshold: 0.05, Severity: "high", Cooldown: 15 * time.Minute, Enabled: true},
		{ID: "slow_response_time", Name: "Slow responses", Metric: MetricAvgResponseTime, Op: ">", Threshold: 2000, Severity: "medium", Cooldown: 10 * time.Minute, Enabled: true},
		{ID: "traffic_spike", Name: "Traffic spike", Metric: MetricTrafficSpike, Op: ">", Threshold: 3, Severity: "low", Cooldown: 30 * time.Minute, Enabled: true},
	}
}

// Bootstrap loads the YAML rules file when configured and upserts rules that
// do not exist yet; with no file it installs DefaultRules into an empty
// store. Existing rules are never overwritten, so operator edits survive
// restarts.
func Bootstrap(ctx context.Context, store Store, configFile string) error {
	if store == nil {
		return nil
	}
	existing := map[string]struct{}{}
	if list, err := store.ListRules(ctx); err == nil {
		for _, r := range list {
			existing[r.ID] = struct{}{}
		}
	}

	var candidates []*AlertRule
	if strings.TrimSpace(configFile) != "" {
		loaded, err := loadRulesFile(configFile)
		if err != nil {
			return err
		}
		candidates = loaded
	} else if len(existing) == 0 {
		candidates = DefaultRules()
	}

	installed := 0
	for _, r := range candidates {
		if _, ok := existing[r.ID]; ok {
			continue
		}
		if err := r.Validate(); err != nil {
			log.Error().Err(err).Str("rule", r.ID).Msg("skipping invalid bootstrap rule")
			continue
		}
		if err := store.UpsertRule(ctx, r); err != nil {
			log.Error().Err(err).Str("rule", r.ID).Msg("bootstrap rule install failed")
			continue
		}
		installed++
	}
	if installed > 0 {
		log.Info().Int("count", installed).Msg("alert rules bootstrapped")
	}
	return nil
}

func loadRulesFile(path string) ([]*AlertRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules config: %w", err)
	}
	var cfg RuleConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rules config: %w", err)
	}
	out := make([]*AlertRule, 0, len(cfg.Rules))
	for _, item := range cfg.Rules {
		cooldown := 15 * time.Minute
		if item.Cooldown != "" {
			if d, err := time.ParseDuration(item.Cooldown); err == nil {
				cooldown = d
			}
		}
		enabled := true
		if item.Enabled != nil {
			enabled = *item.Enabled
		}
		out = append(out, &AlertRule{
			ID:        item.ID,
			Name:      item.Name,
			Metric:    item.Metric,
			Op:        item.Op,
			Threshold: item.Threshold,
			Severity:  item.Severity,
			Cooldown:  cooldown,
			Enabled:   enabled,
		})
	}
	return out, nil
}
