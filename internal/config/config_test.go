package config

import (
	"testing"
	"time"
)

func TestLoad_EmbeddedModelDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Matcher.Model != DefaultModel {
		t.Errorf("expected default model %q, got %q", DefaultModel, cfg.Matcher.Model)
	}
	if cfg.Matcher.Dim != 512 {
		t.Errorf("expected buffalo_l dim 512, got %d", cfg.Matcher.Dim)
	}
	if cfg.Matcher.Threshold != 0.55 {
		t.Errorf("expected buffalo_l threshold 0.55, got %f", cfg.Matcher.Threshold)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EMBEDDING_MODEL", "facenet")
	t.Setenv("MATCH_THRESHOLD", "0.30")
	t.Setenv("CHECKIN_COOLDOWN_SECONDS", "120")

	cfg := Load()

	if cfg.Matcher.Model != "facenet" {
		t.Errorf("expected model facenet, got %q", cfg.Matcher.Model)
	}
	if cfg.Matcher.Dim != 128 {
		t.Errorf("expected facenet dim 128, got %d", cfg.Matcher.Dim)
	}
	if cfg.Matcher.Threshold != 0.30 {
		t.Errorf("expected threshold override 0.30, got %f", cfg.Matcher.Threshold)
	}
	if cfg.Session.RepeatCooldown != 2*time.Minute {
		t.Errorf("expected cooldown 2m, got %s", cfg.Session.RepeatCooldown)
	}
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("EMBEDDING_DIM", "not-a-number")
	t.Setenv("MATCH_THRESHOLD", "-1")

	cfg := Load()

	if cfg.Matcher.Dim != 512 {
		t.Errorf("expected fallback dim 512, got %d", cfg.Matcher.Dim)
	}
	if cfg.Matcher.Threshold != 0.55 {
		t.Errorf("expected fallback threshold 0.55, got %f", cfg.Matcher.Threshold)
	}
}

func TestModelDefaults_UnknownModel(t *testing.T) {
	cfg := Load()

	defaults := cfg.ModelDefaults("does-not-exist")
	if defaults.Dim != 0 || defaults.Threshold != 0 {
		t.Errorf("expected zero defaults for unknown model, got %+v", defaults)
	}
}
