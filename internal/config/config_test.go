package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("PARENT_IDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AppTimezone != "Asia/Ho_Chi_Minh" {
		t.Errorf("AppTimezone = %q", cfg.AppTimezone)
	}
	if cfg.ProfileDailyLimit != 120 {
		t.Errorf("ProfileDailyLimit = %d, want 120", cfg.ProfileDailyLimit)
	}
	if cfg.RewardQuizCorrect != 10 || cfg.RewardStreakDaily != 50 || cfg.RewardExplanation != 5 {
		t.Errorf("unexpected rewards: %d/%d/%d", cfg.RewardQuizCorrect, cfg.RewardStreakDaily, cfg.RewardExplanation)
	}
	if cfg.ExplanationReadLock != 15*time.Second {
		t.Errorf("ExplanationReadLock = %v", cfg.ExplanationReadLock)
	}
	if cfg.PlanReminderLead != 30*time.Minute || cfg.QuizSweepInterval != 10*time.Minute {
		t.Errorf("PlanReminderLead = %v, QuizSweepInterval = %v", cfg.PlanReminderLead, cfg.QuizSweepInterval)
	}
	if cfg.Location() == nil {
		t.Fatal("Location() = nil")
	}
}

func TestLoadParentIDs(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("PARENT_IDS", "101, 202,")
	t.Setenv("PARENT_PASSWORD_HASH", "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.ParentIDs) != 2 || !cfg.IsParent(101) || !cfg.IsParent(202) {
		t.Fatalf("ParentIDs = %v", cfg.ParentIDs)
	}
	if cfg.IsParent(303) {
		t.Fatal("303 must not be a parent")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			StorageDriver:           StorageDriverMemory,
			BotMaxInflight:          1,
			BotUpdateTimeoutSeconds: 1,
			ProfileDailyLimit:       120,
			RewardQuizCorrect:       10,
			RewardStreakDaily:       50,
			RewardExplanation:       5,
			RewardMatchRound:        20,
			RedeemCost:              10,
			RedeemMinutes:           10,
			StoreExtendCost:         50,
			StoreExtendMinutes:      15,
			StoreSkipCost:           30,
			StoreAvatarCost:         100,
			SpeedRoundSize:          5,
			SpeedRoundDuration:      time.Minute,
			UsageTickInterval:       time.Minute,
			UsageTickMinutes:        1,
			PlanReminderLead:        30 * time.Minute,
			QuizSweepInterval:       10 * time.Minute,
			LibraryMaxDocuments:     20,
			LibraryMaxFileBytes:     1 << 20,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"postgres needs password", func(c *Config) { c.StorageDriver = StorageDriverPostgres }, true},
		{"postgres with password", func(c *Config) {
			c.StorageDriver = StorageDriverPostgres
			c.DBPassword = "secret"
			c.DBMaxConns, c.DBMinConns = 5, 1
		}, false},
		{"unknown driver", func(c *Config) { c.StorageDriver = "redis" }, true},
		{"parents without hash", func(c *Config) { c.ParentIDs = []int64{1} }, true},
		{"zero reward", func(c *Config) { c.RewardQuizCorrect = 0 }, true},
		{"negative limit", func(c *Config) { c.ProfileDailyLimit = -1 }, true},
		{"tiny tick", func(c *Config) { c.UsageTickInterval = time.Millisecond }, true},
		{"no reminder lead", func(c *Config) { c.PlanReminderLead = 0 }, true},
		{"empty library", func(c *Config) { c.LibraryMaxDocuments = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	c := Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: 5432, DBName: "n", DBSSLMode: "disable"}
	if got, want := c.DatabaseDSN(), "postgres://u:p@h:5432/n?sslmode=disable"; got != want {
		t.Fatalf("DatabaseDSN() = %q, want %q", got, want)
	}
}
