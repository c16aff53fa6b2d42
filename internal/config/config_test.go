package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.AppointmentsTable != "appointments" {
		t.Errorf("AppointmentsTable = %q, want appointments", cfg.AppointmentsTable)
	}
	if cfg.DraftBackend != "memory" {
		t.Errorf("DraftBackend = %q, want memory", cfg.DraftBackend)
	}
	if cfg.DraftTTL != 30*time.Minute {
		t.Errorf("DraftTTL = %v, want 30m", cfg.DraftTTL)
	}
	if cfg.AllowSimulatedPayments {
		t.Error("AllowSimulatedPayments should default to false")
	}
	if cfg.AllowDemoAuth {
		t.Error("AllowDemoAuth should default to false")
	}
	if cfg.EmailProvider != "stub" {
		t.Errorf("EmailProvider = %q, want stub", cfg.EmailProvider)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("ALLOW_SIMULATED_PAYMENTS", "true")
	t.Setenv("DRAFT_TTL", "5m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LLM_PROVIDER", "Gemini")

	cfg := Load()

	if cfg.Port != "9191" {
		t.Errorf("Port = %q, want 9191", cfg.Port)
	}
	if !cfg.AllowSimulatedPayments {
		t.Error("AllowSimulatedPayments should be true")
	}
	if cfg.DraftTTL != 5*time.Minute {
		t.Errorf("DraftTTL = %v, want 5m", cfg.DraftTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.LLMProvider != "gemini" {
		t.Errorf("LLMProvider = %q, want gemini (normalized)", cfg.LLMProvider)
	}
}
