package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WEBHOOK_VERIFY_TOKEN", "verify-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "interview_bot.db" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("HTTPPort = %q", cfg.HTTPPort)
	}
	if cfg.DailyQuestionHour != 9 {
		t.Fatalf("DailyQuestionHour = %d, want 9", cfg.DailyQuestionHour)
	}
	if cfg.Timezone != time.UTC {
		t.Fatalf("Timezone = %v, want UTC", cfg.Timezone)
	}
}

func TestLoadRequiresVerifyToken(t *testing.T) {
	t.Setenv("WEBHOOK_VERIFY_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without WEBHOOK_VERIFY_TOKEN")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("WEBHOOK_VERIFY_TOKEN", "verify-secret")

	t.Setenv("DAILY_QUESTION_HOUR", "24")
	if _, err := Load(); err == nil {
		t.Fatal("Load accepted DAILY_QUESTION_HOUR=24")
	}
	t.Setenv("DAILY_QUESTION_HOUR", "9")

	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")
	if _, err := Load(); err == nil {
		t.Fatal("Load accepted an invalid timezone")
	}
}
