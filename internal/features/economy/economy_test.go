package economy

import (
	"context"
	"errors"
	"testing"
	"time"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/profile"
)

var today = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func newProfile(points int64) profile.Profile {
	p := profile.NewProfile(1, profile.Seed{DailyLimit: 120, StartingPoints: points}, today)
	return p
}

func TestCreditPoints(t *testing.T) {
	p := newProfile(0)

	next, err := CreditPoints(p, 10)
	if err != nil {
		t.Fatalf("CreditPoints() error = %v", err)
	}
	if next.Points != 10 || next.TotalPointsEarned != 10 {
		t.Fatalf("points = %d total = %d", next.Points, next.TotalPointsEarned)
	}
	if p.Points != 0 {
		t.Fatal("input snapshot was mutated")
	}

	if _, err := CreditPoints(p, 0); !errors.Is(err, common.ErrInvalidAmount) {
		t.Fatalf("zero amount err = %v", err)
	}
}

func TestSpendAndGrantTime(t *testing.T) {
	p := newProfile(100)

	next, err := SpendAndGrantTime(p, 50, 15, "")
	if err != nil {
		t.Fatalf("SpendAndGrantTime() error = %v", err)
	}
	if next.Points != 50 || next.DailyLimit != 135 || next.EarnedTime != 15 {
		t.Fatalf("got points=%d limit=%d earned=%d", next.Points, next.DailyLimit, next.EarnedTime)
	}
	if next.TotalPointsEarned != 100 {
		t.Fatalf("spending must not reduce total earned: %d", next.TotalPointsEarned)
	}
}

func TestSpendAndGrantTimeToApp(t *testing.T) {
	p := newProfile(100)

	next, err := SpendAndGrantTime(p, 10, 10, "3")
	if err != nil {
		t.Fatalf("SpendAndGrantTime() error = %v", err)
	}
	app, _ := next.App("3")
	if app.Limit != 40 || next.DailyLimit != 120 || next.EarnedTime != 10 {
		t.Fatalf("app limit=%d daily=%d earned=%d", app.Limit, next.DailyLimit, next.EarnedTime)
	}
}

func TestSpendFailuresLeaveSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		points  int64
		op      func(p profile.Profile) (profile.Profile, error)
		wantErr error
	}{
		{"skip pass without funds", 20, func(p profile.Profile) (profile.Profile, error) { return BuySkipPass(p, 30) }, common.ErrInsufficientFunds},
		{"avatar without funds", 99, func(p profile.Profile) (profile.Profile, error) {
			return BuyAvatar(p, 100, common.NewSequenceGenerator("avatar_"))
		}, common.ErrInsufficientFunds},
		{"redeem unknown app", 100, func(p profile.Profile) (profile.Profile, error) { return SpendAndGrantTime(p, 10, 10, "42") }, common.ErrInvalidAppReference},
		{"zero minutes", 100, func(p profile.Profile) (profile.Profile, error) { return SpendAndGrantTime(p, 10, 0, "") }, common.ErrInvalidAmount},
		{"negative cost", 100, func(p profile.Profile) (profile.Profile, error) { return BuySkipPass(p, -5) }, common.ErrInvalidAmount},
		{"no passes", 100, ConsumeSkipPass, common.ErrNoPassesAvailable},
		{"unknown item", 100, func(p profile.Profile) (profile.Profile, error) {
			return Purchase(p, DefaultCatalog(), Item("rocket"), common.NewSequenceGenerator("a"))
		}, common.ErrUnknownItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProfile(tt.points)
			got, err := tt.op(p)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got.Points != tt.points || got.DailyLimit != p.DailyLimit || got.Inventory.SkipPasses != 0 || len(got.Inventory.Avatars) != 1 {
				t.Fatalf("snapshot changed: %+v", got)
			}
		})
	}
}

func TestSkipPassLifecycle(t *testing.T) {
	p := newProfile(60)

	p, err := BuySkipPass(p, 30)
	if err != nil {
		t.Fatal(err)
	}
	if p.Inventory.SkipPasses != 1 || p.Points != 30 {
		t.Fatalf("passes=%d points=%d", p.Inventory.SkipPasses, p.Points)
	}

	p, err = ConsumeSkipPass(p)
	if err != nil {
		t.Fatal(err)
	}
	if p.Inventory.SkipPasses != 0 {
		t.Fatalf("passes = %d", p.Inventory.SkipPasses)
	}
	if _, err := ConsumeSkipPass(p); !errors.Is(err, common.ErrNoPassesAvailable) {
		t.Fatalf("err = %v", err)
	}
}

func TestBuyAvatarUsesGenerator(t *testing.T) {
	p := newProfile(250)
	gen := common.NewSequenceGenerator("avatar_")

	p, err := BuyAvatar(p, 100, gen)
	if err != nil {
		t.Fatal(err)
	}
	p, err = BuyAvatar(p, 100, gen)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{profile.DefaultAvatar, "avatar_1", "avatar_2"}
	if len(p.Inventory.Avatars) != len(want) {
		t.Fatalf("avatars = %v", p.Inventory.Avatars)
	}
	for i := range want {
		if p.Inventory.Avatars[i] != want[i] {
			t.Fatalf("avatars = %v, want %v", p.Inventory.Avatars, want)
		}
	}
	if p.Inventory.ActiveAvatar != "avatar_2" || p.Points != 50 {
		t.Fatalf("active=%s points=%d", p.Inventory.ActiveAvatar, p.Points)
	}

	p, err = SetActiveAvatar(p, profile.DefaultAvatar)
	if err != nil || p.Inventory.ActiveAvatar != profile.DefaultAvatar {
		t.Fatalf("SetActiveAvatar() = %s, %v", p.Inventory.ActiveAvatar, err)
	}
	if _, err := SetActiveAvatar(p, "avatar_9"); !errors.Is(err, common.ErrAvatarNotOwned) {
		t.Fatalf("err = %v", err)
	}
}

func TestRankOf(t *testing.T) {
	tests := []struct {
		total int64
		want  Rank
	}{
		{0, RankRookie},
		{999, RankRookie},
		{1000, RankScholar},
		{4999, RankScholar},
		{5000, RankPhilosopher},
		{10000, RankProfessor},
		{250000, RankProfessor},
	}
	for _, tt := range tests {
		if got := RankOf(tt.total); got != tt.want {
			t.Errorf("RankOf(%d) = %s, want %s", tt.total, got, tt.want)
		}
	}

	if next, left, ok := NextRank(1200); !ok || next != RankPhilosopher || left != 3800 {
		t.Errorf("NextRank(1200) = %s, %d, %v", next, left, ok)
	}
	if _, _, ok := NextRank(10000); ok {
		t.Error("professor has no next rank")
	}
}

func TestTotalEarnedNeverDecreases(t *testing.T) {
	p := newProfile(0)
	gen := common.NewSequenceGenerator("avatar_")
	c := DefaultCatalog()

	ops := []func(profile.Profile) (profile.Profile, error){
		func(p profile.Profile) (profile.Profile, error) { return CreditPoints(p, 200) },
		func(p profile.Profile) (profile.Profile, error) { return Purchase(p, c, ItemExtend, gen) },
		func(p profile.Profile) (profile.Profile, error) { return Purchase(p, c, ItemAvatar, gen) },
		func(p profile.Profile) (profile.Profile, error) { return Purchase(p, c, ItemAvatar, gen) },
		func(p profile.Profile) (profile.Profile, error) { return Redeem(p, c, "") },
		func(p profile.Profile) (profile.Profile, error) { return Purchase(p, c, ItemSkip, gen) },
		ConsumeSkipPass,
		ConsumeSkipPass,
	}

	prevTotal := p.TotalPointsEarned
	for i, op := range ops {
		next, _ := op(p)
		if next.TotalPointsEarned < prevTotal {
			t.Fatalf("op %d decreased total earned: %d → %d", i, prevTotal, next.TotalPointsEarned)
		}
		if next.Points < 0 || next.Inventory.SkipPasses < 0 || next.EarnedTime < 0 {
			t.Fatalf("op %d produced negative counters: %+v", i, next)
		}
		prevTotal = next.TotalPointsEarned
		p = next
	}
}

func TestServiceBuyWritesLedger(t *testing.T) {
	ctx := context.Background()
	profiles := profile.NewService(profile.NewMemoryStore(),
		profile.Seed{DailyLimit: 120, StartingPoints: 100},
		common.FixedClock(today.Add(9*time.Hour)), time.UTC)
	svc := NewService(profiles, DefaultCatalog(), common.NewSequenceGenerator("avatar_"))

	p, err := svc.Buy(ctx, 5, ItemExtend)
	if err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if p.Points != 50 || p.DailyLimit != 135 {
		t.Fatalf("points=%d limit=%d", p.Points, p.DailyLimit)
	}

	if _, err := svc.Buy(ctx, 5, ItemAvatar); !errors.Is(err, common.ErrInsufficientFunds) {
		t.Fatalf("err = %v", err)
	}

	txs, _ := svc.History(ctx, 5, 10)
	if len(txs) != 1 || txs[0].Delta != -50 || txs[0].Reason != profile.ReasonStoreExtend {
		t.Fatalf("txs = %+v", txs)
	}
}

func TestFormatBalance(t *testing.T) {
	p := newProfile(0)
	p.Points = 150
	p.TotalPointsEarned = 1250
	want := "💰 Số dư: 150 BP\n🏆 Tổng tích lũy: 1.250 BP\n📚 Học giả — còn 3.750 BP để lên 🦉 Triết gia"
	if got := FormatBalance(p); got != want {
		t.Fatalf("FormatBalance() =\n%q\nwant\n%q", got, want)
	}
}
