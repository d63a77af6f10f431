package usage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/profile"
)

var today = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func newProfile() profile.Profile {
	return profile.NewProfile(1, profile.Seed{DailyLimit: 120}, today)
}

func TestRecordUsage(t *testing.T) {
	p := newProfile()

	next, err := RecordUsage(p, "2", 5)
	if err != nil {
		t.Fatalf("RecordUsage() error = %v", err)
	}
	app, _ := next.App("2")
	if next.UsedTime != 5 || app.UsedTime != 5 {
		t.Fatalf("used=%d app=%d", next.UsedTime, app.UsedTime)
	}

	next, err = RecordUsage(next, "", 3)
	if err != nil {
		t.Fatal(err)
	}
	if next.UsedTime != 8 {
		t.Fatalf("used = %d, want 8", next.UsedTime)
	}

	if _, err := RecordUsage(p, "2", 0); !errors.Is(err, common.ErrInvalidAmount) {
		t.Fatalf("zero delta err = %v", err)
	}
	if got, err := RecordUsage(p, "9", 1); !errors.Is(err, common.ErrInvalidAppReference) || got.UsedTime != 0 {
		t.Fatalf("unknown app: used=%d err=%v", got.UsedTime, err)
	}
}

func TestDerivedQueries(t *testing.T) {
	tests := []struct {
		name          string
		limit, used   int
		wantRemaining int
		wantPercent   int
		wantOver      bool
	}{
		{"fresh", 120, 0, 120, 0, false},
		{"half", 120, 60, 60, 50, false},
		{"exact", 120, 120, 0, 100, true},
		{"over", 120, 190, 0, 100, true},
		{"zero limit", 0, 0, 0, 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProfile()
			p.DailyLimit, p.UsedTime = tt.limit, tt.used
			if got := Remaining(p); got != tt.wantRemaining {
				t.Errorf("Remaining() = %d, want %d", got, tt.wantRemaining)
			}
			if got := PercentUsed(p); got != tt.wantPercent {
				t.Errorf("PercentUsed() = %d, want %d", got, tt.wantPercent)
			}
			if got := IsOverLimit(p); got != tt.wantOver {
				t.Errorf("IsOverLimit() = %v, want %v", got, tt.wantOver)
			}
		})
	}
}

func TestIsLocked(t *testing.T) {
	tests := []struct {
		app  profile.AppUsage
		want bool
	}{
		{profile.AppUsage{Category: profile.CategorySocial, UsedTime: 59, Limit: 60}, false},
		{profile.AppUsage{Category: profile.CategorySocial, UsedTime: 60, Limit: 60}, true},
		{profile.AppUsage{Category: profile.CategoryGaming, UsedTime: 0, Limit: 0}, true},
		{profile.AppUsage{Category: profile.CategoryEducation, UsedTime: 500, Limit: 120}, false},
	}
	for _, tt := range tests {
		if got := IsLocked(tt.app); got != tt.want {
			t.Errorf("IsLocked(%+v) = %v, want %v", tt.app, got, tt.want)
		}
	}
}

func TestCloseDay(t *testing.T) {
	p := newProfile()
	p, _ = RecordUsage(p, "1", 40)

	if same, closed := CloseDay(p, today); closed || same.UsedTime != 40 {
		t.Fatalf("same day must be a no-op: closed=%v used=%d", closed, same.UsedTime)
	}

	next, closed := CloseDay(p, today.AddDate(0, 0, 1))
	if !closed {
		t.Fatal("new day must close the previous one")
	}
	if next.UsedTime != 0 || next.Apps[0].UsedTime != 0 {
		t.Fatalf("usage not reset: %d/%d", next.UsedTime, next.Apps[0].UsedTime)
	}
	if len(next.UsageHistory) != 1 || next.UsageHistory[0].Used != 40 || !next.UsageHistory[0].Date.Equal(today) {
		t.Fatalf("history = %+v", next.UsageHistory)
	}

	for i := 2; i <= 10; i++ {
		next, _ = CloseDay(next, today.AddDate(0, 0, i))
	}
	if len(next.UsageHistory) != historyDays {
		t.Fatalf("history len = %d", len(next.UsageHistory))
	}
	if !next.UsageHistory[historyDays-1].Date.Equal(today.AddDate(0, 0, 9)) {
		t.Fatalf("last history date = %v", next.UsageHistory[historyDays-1].Date)
	}
}

func TestLimits(t *testing.T) {
	p := newProfile()

	next, err := SetDailyLimit(p, 90)
	if err != nil || next.DailyLimit != 90 {
		t.Fatalf("SetDailyLimit() = %d, %v", next.DailyLimit, err)
	}
	if _, err := SetDailyLimit(p, -1); !errors.Is(err, common.ErrInvalidLimit) {
		t.Fatalf("err = %v", err)
	}

	next, err = SetAppLimit(p, "3", 45)
	if err != nil {
		t.Fatal(err)
	}
	if app, _ := next.App("3"); app.Limit != 45 {
		t.Fatalf("limit = %d", app.Limit)
	}
	if _, err := SetAppLimit(p, "nope", 10); !errors.Is(err, common.ErrInvalidAppReference) {
		t.Fatalf("err = %v", err)
	}
}

func TestDetectAlerts(t *testing.T) {
	p := newProfile()
	p.DailyLimit = 20
	p.UsedTime = 5

	low, _ := RecordUsage(p, "3", 1) // остаток 14
	if a := DetectAlerts(p, low, 15); !a.LowTime || a.LimitReached {
		t.Fatalf("low alert = %+v", a)
	}
	again, _ := RecordUsage(low, "", 1)
	if a := DetectAlerts(low, again, 15); !a.Empty() {
		t.Fatalf("repeated alert = %+v", a)
	}

	atLimit := again
	atLimit.UsedTime = 19
	done, _ := RecordUsage(atLimit, "", 1)
	if a := DetectAlerts(atLimit, done, 15); !a.LimitReached {
		t.Fatalf("limit alert = %+v", a)
	}

	mc := newProfile()
	mc.Apps[2].UsedTime = 29
	locked, _ := RecordUsage(mc, "3", 1)
	a := DetectAlerts(mc, locked, 15)
	if len(a.LockedApps) != 1 || a.LockedApps[0] != "Minecraft" {
		t.Fatalf("locked apps = %v", a.LockedApps)
	}
}

func TestTickUsesPickerAndNotifies(t *testing.T) {
	ctx := context.Background()
	profiles := profile.NewService(profile.NewMemoryStore(), profile.Seed{DailyLimit: 16},
		common.FixedClock(today.Add(10*time.Hour)), time.UTC)
	if _, err := profiles.Get(ctx, 1); err != nil {
		t.Fatal(err)
	}
	svc := NewService(profiles, 1, 15).WithPicker(func(int) int { return 1 })

	var sent []string
	send := func(userID int64, text string) error {
		sent = append(sent, text)
		return nil
	}

	if err := svc.Tick(ctx, send); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	p, _ := profiles.Get(ctx, 1)
	if app, _ := p.App("2"); p.UsedTime != 1 || app.UsedTime != 1 {
		t.Fatalf("used=%d youtube=%d", p.UsedTime, app.UsedTime)
	}
	if len(sent) != 0 {
		t.Fatalf("unexpected alerts: %v", sent)
	}

	if err := svc.Tick(ctx, send); err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 || !strings.Contains(sent[0], "14m") {
		t.Fatalf("sent = %v", sent)
	}
}

func TestFormatStatus(t *testing.T) {
	p := newProfile()
	p.UsedTime = 90
	p.EarnedTime = 15
	got := FormatStatus(p, 15)
	want := "⏱ Hôm nay: 1h 30m / 2h (75%)\n⌛ Còn lại: 30m\n🎁 Đã kiếm thêm: 15m"
	if got != want {
		t.Fatalf("FormatStatus() =\n%q\nwant\n%q", got, want)
	}
}

func TestDailyResetClosesEveryProfile(t *testing.T) {
	ctx := context.Background()
	now := today.Add(10 * time.Hour)
	clock := func() time.Time { return now }
	profiles := profile.NewService(profile.NewMemoryStore(), profile.Seed{DailyLimit: 60}, clock, time.UTC)
	svc := NewService(profiles, 5, 15).WithPicker(func(int) int { return 0 })

	for _, id := range []int64{1, 2} {
		if _, err := profiles.Get(ctx, id); err != nil {
			t.Fatal(err)
		}
	}
	if err := svc.Tick(ctx, nil); err != nil {
		t.Fatal(err)
	}

	if n, err := svc.DailyReset(ctx); err != nil || n != 0 {
		t.Fatalf("same-day DailyReset() = %d, %v", n, err)
	}

	now = now.Add(24 * time.Hour)
	n, err := svc.DailyReset(ctx)
	if err != nil || n != 2 {
		t.Fatalf("DailyReset() = %d, %v", n, err)
	}
	p, _ := profiles.Get(ctx, 2)
	if p.UsedTime != 0 || len(p.UsageHistory) != 1 || p.UsageHistory[0].Used != 5 {
		t.Fatalf("profile after reset: used=%d history=%+v", p.UsedTime, p.UsageHistory)
	}
}
