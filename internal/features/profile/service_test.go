package profile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"serotonyl.ru/lumi-bot/internal/common"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestService(store Store) *Service {
	return NewService(store, Seed{DailyLimit: 120}, common.FixedClock(testNow), time.UTC)
}

func addPoints(n int64) Transition {
	return func(p Profile) (Profile, error) {
		next := p.Clone()
		next.Points += n
		next.TotalPointsEarned += n
		return next, nil
	}
}

func TestGetCreatesSeedProfile(t *testing.T) {
	svc := newTestService(NewMemoryStore())

	p, err := svc.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.UserID != 42 || p.DailyLimit != 120 || p.StreakDays != 1 {
		t.Fatalf("unexpected seed: %+v", p)
	}
	if !p.LastActiveDate.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("LastActiveDate = %v", p.LastActiveDate)
	}
	if len(p.Apps) != 4 || p.Inventory.ActiveAvatar != DefaultAvatar {
		t.Fatalf("unexpected apps/inventory: %+v", p)
	}
}

func TestApplyCommitsAndRecordsTransaction(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore())

	next, err := svc.Apply(ctx, 1, ReasonQuizAnswer, addPoints(10))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if next.Version != 1 || next.Points != 10 {
		t.Fatalf("next = version %d points %d", next.Version, next.Points)
	}

	txs, err := svc.History(ctx, 1, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(txs) != 1 || txs[0].Delta != 10 || txs[0].BalanceAfter != 10 || txs[0].Reason != ReasonQuizAnswer {
		t.Fatalf("txs = %+v", txs)
	}
}

func TestApplyErrorLeavesSnapshot(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore())
	if _, err := svc.Apply(ctx, 1, ReasonQuizAnswer, addPoints(20)); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Apply(ctx, 1, ReasonStoreSkip, func(p Profile) (Profile, error) {
		return p, common.ErrInsufficientFunds
	})
	if !errors.Is(err, common.ErrInsufficientFunds) {
		t.Fatalf("err = %v", err)
	}
	if got.Points != 20 || got.Version != 1 {
		t.Fatalf("snapshot changed: %+v", got)
	}

	stored, _ := svc.Get(ctx, 1)
	if stored.Version != 1 {
		t.Fatalf("stored version = %d, want 1", stored.Version)
	}
}

func TestApplyUnchangedSkipsCommit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore())

	got, err := svc.Apply(ctx, 1, ReasonStreak, func(p Profile) (Profile, error) {
		return p, ErrUnchanged
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got.Version != 0 {
		t.Fatalf("version = %d, want 0", got.Version)
	}
}

func TestApplySerializesWriters(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Apply(ctx, 7, ReasonQuizAnswer, addPoints(1)); err != nil {
				t.Errorf("Apply() error = %v", err)
			}
		}()
	}
	wg.Wait()

	p, _ := svc.Get(ctx, 7)
	if p.Points != 50 || p.Version != 50 {
		t.Fatalf("points = %d version = %d, want 50/50", p.Points, p.Version)
	}
}

// conflictingStore отвечает конфликтом версий на первые n обновлений.
type conflictingStore struct {
	*MemoryStore
	conflicts int
}

func (c *conflictingStore) Update(ctx context.Context, prev int64, next Profile, tx *Transaction) error {
	if c.conflicts > 0 {
		c.conflicts--
		return ErrVersionConflict
	}
	return c.MemoryStore.Update(ctx, prev, next, tx)
}

func TestApplyRetriesOnConflict(t *testing.T) {
	ctx := context.Background()

	store := &conflictingStore{MemoryStore: NewMemoryStore(), conflicts: 2}
	svc := newTestService(store)
	if _, err := svc.Apply(ctx, 1, ReasonQuizAnswer, addPoints(5)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	store = &conflictingStore{MemoryStore: NewMemoryStore(), conflicts: maxApplyAttempts}
	svc = newTestService(store)
	if _, err := svc.Apply(ctx, 1, ReasonQuizAnswer, addPoints(5)); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := NewProfile(1, Seed{DailyLimit: 60}, testNow)
	c := p.Clone()
	c.Apps[0].UsedTime = 99
	c.Inventory.Avatars[0] = "x"
	c.Badges = append(c.Badges, BadgeNightOwl)

	if p.Apps[0].UsedTime != 0 || p.Inventory.Avatars[0] != DefaultAvatar || p.HasBadge(BadgeNightOwl) {
		t.Fatalf("clone shares memory with original: %+v", p)
	}
}

func TestMemoryStoreTransactionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore())
	for i := int64(1); i <= 3; i++ {
		if _, err := svc.Apply(ctx, 1, ReasonQuizAnswer, addPoints(i)); err != nil {
			t.Fatal(err)
		}
	}
	txs, _ := svc.History(ctx, 1, 2)
	if len(txs) != 2 || txs[0].Delta != 3 || txs[1].Delta != 2 {
		t.Fatalf("txs = %+v", txs)
	}
}
