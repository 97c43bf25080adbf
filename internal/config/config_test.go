package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, ":8080")
	}
	if cfg.JWT.Expiration != time.Hour {
		t.Errorf("JWT.Expiration = %v, want %v", cfg.JWT.Expiration, time.Hour)
	}
	if cfg.Points.TrainingPoints != 10 {
		t.Errorf("Points.TrainingPoints = %d, want 10", cfg.Points.TrainingPoints)
	}
	if !cfg.Points.AllowRepeatAwards {
		t.Error("Points.AllowRepeatAwards = false, want true")
	}
	if cfg.Points.NarrateAttendanceReversals {
		t.Error("Points.NarrateAttendanceReversals = true, want false")
	}
	if len(cfg.Points.TournamentKeywords) != 2 {
		t.Errorf("Points.TournamentKeywords = %v, want two defaults", cfg.Points.TournamentKeywords)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
database:
  driver: memory
points:
  training_points: 15
  timezone: Europe/Berlin
jwt:
  expiration: 30m
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERVER_ADDRESS", ":9090")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("Database.Driver = %q, want memory", cfg.Database.Driver)
	}
	if cfg.Points.TrainingPoints != 15 {
		t.Errorf("Points.TrainingPoints = %d, want 15", cfg.Points.TrainingPoints)
	}
	if cfg.JWT.Expiration != 30*time.Minute {
		t.Errorf("JWT.Expiration = %v, want 30m", cfg.JWT.Expiration)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("Server.Address = %q, want :9090 from env", cfg.Server.Address)
	}
	loc, err := cfg.Points.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Errorf("Location() = %v, %v; want Europe/Berlin", loc, err)
	}
}

func TestLoadConfigRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("POINTS_TIMEZONE", "Mars/Olympus")
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Error("LoadConfig accepted an unknown timezone")
	}
}
