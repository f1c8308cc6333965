package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("MONGODB_DATABASE", "sidekick_test")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("REDIS_PORT", "6379")
	os.Setenv("META_ACCESS_TOKEN", "test-token")
	os.Setenv("FACEBOOK_PAGE_ID", "123456")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.Meta.PageID != "123456" {
		t.Fatalf("unexpected page id: %q", cfg.Meta.PageID)
	}
	if cfg.Meta.APIVersion == "" {
		t.Fatalf("expected default Graph API version")
	}
	if cfg.Scheduler.PollInterval <= 0 {
		t.Fatalf("expected default scheduler poll interval, got %v", cfg.Scheduler.PollInterval)
	}
}
