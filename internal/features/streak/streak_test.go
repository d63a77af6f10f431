package streak

import (
	"context"
	"errors"
	"testing"
	"time"

	"serotonyl.ru/lumi-bot/internal/features/profile"
	"serotonyl.ru/lumi-bot/internal/features/usage"
)

var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func newProfile(streak int, points int64) profile.Profile {
	p := profile.NewProfile(1, profile.Seed{DailyLimit: 120, StartingPoints: points}, day)
	p.StreakDays = streak
	return p
}

func TestRolloverLaw(t *testing.T) {
	tests := []struct {
		name       string
		today      time.Time
		wantStreak int
		wantPoints int64
		wantErr    error
	}{
		{"same day", day, 3, 100, profile.ErrUnchanged},
		{"next day", day.AddDate(0, 0, 1), 4, 150, nil},
		{"gap of five days", day.AddDate(0, 0, 5), 1, 100, nil},
		{"clock moved back", day.AddDate(0, 0, -1), 3, 100, profile.ErrUnchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProfile(3, 100)
			got, out, err := Rollover(p, tt.today, 50)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got.StreakDays != tt.wantStreak || got.Points != tt.wantPoints {
				t.Fatalf("streak=%d points=%d, want %d/%d", got.StreakDays, got.Points, tt.wantStreak, tt.wantPoints)
			}
			if tt.wantErr == nil {
				if !got.LastActiveDate.Equal(tt.today) {
					t.Fatalf("LastActiveDate = %v", got.LastActiveDate)
				}
				if out.Streak != tt.wantStreak {
					t.Fatalf("outcome streak = %d", out.Streak)
				}
			}
		})
	}
}

func TestRolloverBonusCountsAsEarned(t *testing.T) {
	p := newProfile(1, 0)
	got, out, err := Rollover(p, day.AddDate(0, 0, 1), 50)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalPointsEarned != 50 || !out.Continued || out.Bonus != 50 {
		t.Fatalf("total=%d outcome=%+v", got.TotalPointsEarned, out)
	}
}

func TestStreakMasterUnlocksOnce(t *testing.T) {
	p := newProfile(29, 0)

	p, out, err := Rollover(p, day.AddDate(0, 0, 1), 50)
	if err != nil {
		t.Fatal(err)
	}
	if !p.HasBadge(profile.BadgeStreakMaster) || len(out.NewBadges) != 1 {
		t.Fatalf("badges=%v outcome=%+v", p.Badges, out)
	}

	p, out, err = Rollover(p, day.AddDate(0, 0, 2), 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Badges) != 1 || len(out.NewBadges) != 0 {
		t.Fatalf("duplicate badge: %v", p.Badges)
	}

	// Разрыв серии не отнимает значок.
	p, _, _ = Rollover(p, day.AddDate(0, 0, 10), 50)
	if p.StreakDays != 1 || !p.HasBadge(profile.BadgeStreakMaster) {
		t.Fatalf("streak=%d badges=%v", p.StreakDays, p.Badges)
	}
}

func TestUnlockBadgeIdempotent(t *testing.T) {
	p := newProfile(1, 0)
	p, added := UnlockBadge(p, profile.BadgeNightOwl)
	if !added {
		t.Fatal("first unlock must add")
	}
	p, added = UnlockBadge(p, profile.BadgeNightOwl)
	if added || len(p.Badges) != 1 {
		t.Fatalf("second unlock: added=%v badges=%v", added, p.Badges)
	}
}

func TestBadgeEvaluatorsRespectThresholds(t *testing.T) {
	p := newProfile(1, 0)
	p.Stats.CorrectAfterLateHour = NightOwlThreshold - 1
	p.Stats.ConsecutiveCorrectInTopic = MathMasterThreshold - 1

	if _, ok := EvaluateNightOwl(p); ok {
		t.Fatal("nightOwl unlocked below threshold")
	}
	if _, ok := EvaluateMathMaster(p); ok {
		t.Fatal("mathMaster unlocked below threshold")
	}

	p.Stats.CorrectAfterLateHour++
	p.Stats.ConsecutiveCorrectInTopic++
	if _, ok := EvaluateNightOwl(p); !ok {
		t.Fatal("nightOwl not unlocked at threshold")
	}
	if _, ok := EvaluateMathMaster(p); !ok {
		t.Fatal("mathMaster not unlocked at threshold")
	}
}

func newServices(now *time.Time) (*profile.Service, *Service) {
	clock := func() time.Time { return *now }
	profiles := profile.NewService(profile.NewMemoryStore(), profile.Seed{DailyLimit: 120}, clock, time.UTC)
	return profiles, NewService(profiles, 50, 3)
}

func TestTouchRollsUsageAndStreak(t *testing.T) {
	ctx := context.Background()
	now := day.Add(9 * time.Hour)
	profiles, svc := newServices(&now)

	if out, err := svc.Touch(ctx, 1); err != nil || out.DiffDays != 0 {
		t.Fatalf("first Touch() = %+v, %v", out, err)
	}
	if _, err := profiles.Apply(ctx, 1, profile.ReasonUsageTick, func(p profile.Profile) (profile.Profile, error) {
		return usage.RecordUsage(p, "1", 30)
	}); err != nil {
		t.Fatal(err)
	}

	now = now.Add(24 * time.Hour)
	out, err := svc.Touch(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Continued || out.Streak != 2 {
		t.Fatalf("outcome = %+v", out)
	}

	p, _ := profiles.Get(ctx, 1)
	if p.UsedTime != 0 || p.Points != 50 || len(p.UsageHistory) != 1 {
		t.Fatalf("profile = used %d points %d history %d", p.UsedTime, p.Points, len(p.UsageHistory))
	}

	// Повторный Touch в тот же день ничего не меняет.
	before := p.Version
	if _, err := svc.Touch(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if p, _ = profiles.Get(ctx, 1); p.Version != before {
		t.Fatalf("version changed on same-day touch: %d → %d", before, p.Version)
	}
}

func TestTouchAfterNightlyResetStillEvaluatesStreak(t *testing.T) {
	ctx := context.Background()
	now := day.Add(9 * time.Hour)
	profiles, svc := newServices(&now)
	if _, err := profiles.Get(ctx, 1); err != nil {
		t.Fatal(err)
	}

	now = now.Add(24 * time.Hour)
	if _, err := usage.NewService(profiles, 1, 15).DailyReset(ctx); err != nil {
		t.Fatal(err)
	}
	out, err := svc.Touch(ctx, 1)
	if err != nil || !out.Continued {
		t.Fatalf("Touch() = %+v, %v", out, err)
	}
}

func TestSendReminders(t *testing.T) {
	ctx := context.Background()
	now := day.Add(9 * time.Hour)
	profiles, svc := newServices(&now)

	for _, id := range []int64{1, 2} {
		if _, err := profiles.Get(ctx, id); err != nil {
			t.Fatal(err)
		}
	}
	// У ученика 1 серия 5 дней, у ученика 2 — 1 день.
	if _, err := profiles.Apply(ctx, 1, "test", func(p profile.Profile) (profile.Profile, error) {
		next := p.Clone()
		next.StreakDays = 5
		return next, nil
	}); err != nil {
		t.Fatal(err)
	}

	now = now.Add(24 * time.Hour)
	var got []int64
	n, err := svc.SendReminders(ctx, func(userID int64, text string) error {
		got = append(got, userID)
		return nil
	})
	if err != nil || n != 1 || len(got) != 1 || got[0] != 1 {
		t.Fatalf("SendReminders() = %d, %v, %v", n, got, err)
	}
}

func TestFormatOutcome(t *testing.T) {
	if got := FormatOutcome(Outcome{}); got != "" {
		t.Fatalf("empty outcome = %q", got)
	}
	got := FormatOutcome(Outcome{Continued: true, Streak: 30, Bonus: 50, NewBadges: []profile.Badge{profile.BadgeStreakMaster}})
	want := "🔥 Chuỗi 30 ngày! +50 BP\n🏅 Huy hiệu mới: 🔥 Chuỗi 30 ngày"
	if got != want {
		t.Fatalf("FormatOutcome() = %q, want %q", got, want)
	}
}
