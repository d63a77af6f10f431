package quiz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/profile"
)

type fakeProvider struct {
	mu       sync.Mutex
	err      error
	question Question
	batch    []Question
	pairs    []Pair
	calls    int
	lastDiff Difficulty
}

func (f *fakeProvider) RequestQuestion(_ context.Context, _ string, d Difficulty) (Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastDiff = d
	return f.question, f.err
}

func (f *fakeProvider) RequestQuestionBatch(context.Context, string, int) ([]Question, error) {
	return f.batch, f.err
}

func (f *fakeProvider) RequestPairs(context.Context, string) ([]Pair, error) {
	return f.pairs, f.err
}

func (f *fakeProvider) RequestQuestionFromText(context.Context, string) (Question, error) {
	return f.question, f.err
}

// flakyStore отказывает в записи, пока выставлен failUpdate.
type flakyStore struct {
	*profile.MemoryStore
	failUpdate bool
}

func (s *flakyStore) Update(ctx context.Context, prevVersion int64, next profile.Profile, tx *profile.Transaction) error {
	if s.failUpdate {
		return errors.New("база недоступна")
	}
	return s.MemoryStore.Update(ctx, prevVersion, next, tx)
}

type fixture struct {
	now      time.Time
	store    *flakyStore
	profiles *profile.Service
	provider *fakeProvider
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: day.Add(12 * time.Hour), provider: &fakeProvider{question: sampleQuestion()}}
	clock := func() time.Time { return f.now }
	f.store = &flakyStore{MemoryStore: profile.NewMemoryStore()}
	f.profiles = profile.NewService(f.store, profile.Seed{DailyLimit: 120}, clock, time.UTC)
	settings := Settings{
		ExplanationBonus: 5,
		MatchBonus:       20,
		ReadLock:         15 * time.Second,
		ProviderTimeout:  time.Second,
		SessionTTL:       30 * time.Minute,
		SpeedSize:        2,
		SpeedDuration:    time.Minute,
		SpeedEnabled:     true,
		MatchEnabled:     true,
	}
	f.svc = NewService(f.profiles, f.provider, NewProcessor(10, time.UTC, common.NewSequenceGenerator("r")), settings, common.NewSequenceGenerator("q"))
	f.svc.WithShuffle(reverse)
	return f
}

func TestServiceQuestionFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	s, err := f.svc.Start(ctx, 1, "toán học")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.State != StateActive || s.QuestionID != "q1" {
		t.Fatalf("session = %+v", s)
	}
	if _, err := f.svc.Start(ctx, 1, "lịch sử"); !errors.Is(err, common.ErrQuizInProgress) {
		t.Fatalf("Start while active = %v", err)
	}

	s, res, err := f.svc.Answer(ctx, 1, "q1", 1)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !s.Correct || res.Awarded != 10 || s.State != StateAnswered {
		t.Errorf("answer = %+v, %+v", s, res)
	}
	if _, _, err := f.svc.Answer(ctx, 1, "q1", 1); !errors.Is(err, common.ErrQuizNotActive) {
		t.Fatalf("second Answer() = %v", err)
	}

	p, _ := f.profiles.Get(ctx, 1)
	if p.Points != 10 || len(p.QuizHistory) != 1 || p.QuizHistory[0].Topic != "toán học" {
		t.Errorf("profile = %d points, history %+v", p.Points, p.QuizHistory)
	}

	s, err = f.svc.Next(ctx, 1)
	if err != nil || s.QuestionID != "q2" || s.Topic != "toán học" {
		t.Fatalf("Next() = %+v, %v", s, err)
	}
}

func TestServiceProviderFailureReturnsToIdle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.provider.err = errors.New("timeout")

	if _, err := f.svc.Start(ctx, 1, "khoa học"); !errors.Is(err, common.ErrProviderUnavailable) {
		t.Fatalf("Start() = %v", err)
	}
	if s := f.svc.Session(1); s.State != StateIdle {
		t.Errorf("state = %s, want idle", s.State)
	}

	f.provider.err = nil
	f.provider.question = Question{Text: "bad", Options: []string{"a"}, CorrectIndex: 3}
	if _, err := f.svc.Start(ctx, 1, "khoa học"); !errors.Is(err, common.ErrProviderUnavailable) {
		t.Fatalf("Start(invalid question) = %v", err)
	}
	if s := f.svc.Session(1); s.State != StateIdle {
		t.Errorf("state = %s, want idle", s.State)
	}
}

func TestServiceDifficultyFromHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		s, err := f.svc.Start(ctx, 1, "toán học")
		if err != nil {
			t.Fatalf("Start() %d: %v", i, err)
		}
		if _, _, err := f.svc.Answer(ctx, 1, s.QuestionID, 0); err != nil {
			t.Fatalf("Answer() %d: %v", i, err)
		}
	}
	if _, err := f.svc.Next(ctx, 1); err != nil {
		t.Fatalf("Next() = %v", err)
	}
	if f.provider.lastDiff.Tier != TierEasy {
		t.Errorf("difficulty = %+v, want easy", f.provider.lastDiff)
	}
}

func TestServiceSkip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.Skip(ctx, 1); !errors.Is(err, common.ErrQuizNotActive) {
		t.Fatalf("Skip() in idle = %v", err)
	}
	if _, err := f.svc.Start(ctx, 1, "lịch sử"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Skip(ctx, 1); !errors.Is(err, common.ErrNoPassesAvailable) {
		t.Fatalf("Skip() without pass = %v", err)
	}
	if s := f.svc.Session(1); s.State != StateActive || s.QuestionID != "q1" {
		t.Fatalf("question replaced without pass: %+v", s)
	}

	if _, err := f.profiles.Apply(ctx, 1, profile.ReasonStoreSkip, func(p profile.Profile) (profile.Profile, error) {
		p = p.Clone()
		p.Inventory.SkipPasses = 1
		return p, nil
	}); err != nil {
		t.Fatal(err)
	}

	// провайдер упал: пропуск и прежний вопрос остаются
	f.provider.err = errors.New("timeout")
	if _, err := f.svc.Skip(ctx, 1); !errors.Is(err, common.ErrProviderUnavailable) {
		t.Fatalf("Skip() with failing provider = %v", err)
	}
	p, _ := f.profiles.Get(ctx, 1)
	if p.Inventory.SkipPasses != 1 {
		t.Errorf("passes after failed skip = %d, want 1", p.Inventory.SkipPasses)
	}
	if s := f.svc.Session(1); s.State != StateActive || s.QuestionID != "q1" || s.Replacing {
		t.Fatalf("session after failed skip: %+v", s)
	}
	if s, _, err := f.svc.Answer(ctx, 1, "q1", 1); err != nil || !s.Correct {
		t.Fatalf("Answer() after failed skip = %+v, %v", s, err)
	}

	f.provider.err = nil
	if _, err := f.svc.Next(ctx, 1); err != nil {
		t.Fatal(err)
	}
	s, err := f.svc.Skip(ctx, 1)
	if err != nil || s.QuestionID != "q3" || s.State != StateActive || s.Topic != "lịch sử" {
		t.Fatalf("Skip() = %+v, %v", s, err)
	}
	p, _ = f.profiles.Get(ctx, 1)
	if p.Inventory.SkipPasses != 0 || len(p.QuizHistory) != 1 {
		t.Errorf("after skip: passes %d, history %d", p.Inventory.SkipPasses, len(p.QuizHistory))
	}
}

func TestServiceSkipKeepsQuestionWhenPassNotSaved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.Start(ctx, 1, "toán học"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.profiles.Apply(ctx, 1, profile.ReasonStoreSkip, func(p profile.Profile) (profile.Profile, error) {
		p = p.Clone()
		p.Inventory.SkipPasses = 1
		return p, nil
	}); err != nil {
		t.Fatal(err)
	}

	f.store.failUpdate = true
	if _, err := f.svc.Skip(ctx, 1); err == nil {
		t.Fatal("Skip() must fail when the pass cannot be spent")
	}
	f.store.failUpdate = false
	if s := f.svc.Session(1); s.State != StateActive || s.QuestionID != "q1" || s.Replacing {
		t.Fatalf("session after failed save: %+v", s)
	}
	p, _ := f.profiles.Get(ctx, 1)
	if p.Inventory.SkipPasses != 1 {
		t.Errorf("passes = %d, want 1", p.Inventory.SkipPasses)
	}
}

func TestServiceClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.Claim(ctx, 1); !errors.Is(err, common.ErrQuizNotAnswered) {
		t.Fatalf("Claim() in idle = %v", err)
	}
	s, _ := f.svc.Start(ctx, 1, "địa lý")
	f.svc.Answer(ctx, 1, s.QuestionID, 0)

	f.now = f.now.Add(5 * time.Second)
	if _, err := f.svc.Claim(ctx, 1); !errors.Is(err, common.ErrExplanationLocked) {
		t.Fatalf("early Claim() = %v", err)
	}
	f.now = f.now.Add(10 * time.Second)
	p, err := f.svc.Claim(ctx, 1)
	if err != nil || p.Points != 5 {
		t.Fatalf("Claim() = %d, %v", p.Points, err)
	}
	if _, err := f.svc.Claim(ctx, 1); !errors.Is(err, common.ErrAlreadyClaimed) {
		t.Fatalf("second Claim() = %v", err)
	}
	txs, _ := f.profiles.History(ctx, 1, 10)
	if len(txs) != 1 || txs[0].Reason != profile.ReasonExplanation {
		t.Errorf("ledger = %+v", txs)
	}
}

func TestServiceSessionTTL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.Start(ctx, 1, "toán học"); err != nil {
		t.Fatal(err)
	}
	f.now = f.now.Add(31 * time.Minute)
	if s := f.svc.Session(1); s.State != StateIdle {
		t.Errorf("state after TTL = %s", s.State)
	}
}

func TestServiceConcurrentAnswersCountOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, _ := f.svc.Start(ctx, 1, "toán học")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.svc.Answer(ctx, 1, s.QuestionID, 1)
		}()
	}
	wg.Wait()

	p, _ := f.profiles.Get(ctx, 1)
	if len(p.QuizHistory) != 1 || p.Points != 10 {
		t.Errorf("history %d, points %d", len(p.QuizHistory), p.Points)
	}
}

func TestServiceSpeedRound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.provider.batch = []Question{sampleQuestion(), sampleQuestion()}

	r, err := f.svc.StartSpeed(ctx, 1, "toán học")
	if err != nil {
		t.Fatalf("StartSpeed() = %v", err)
	}
	got, ok, err := f.svc.AnswerSpeed(ctx, 1, r.ID, 0, 1)
	if err != nil || !ok || got.Index != 1 {
		t.Fatalf("AnswerSpeed() = %+v, %v, %v", got, ok, err)
	}
	f.now = f.now.Add(time.Minute)
	if _, _, err := f.svc.AnswerSpeed(ctx, 1, r.ID, 1, 1); !errors.Is(err, common.ErrRoundExpired) {
		t.Fatalf("late AnswerSpeed() = %v", err)
	}
	p, _ := f.profiles.Get(ctx, 1)
	if len(p.QuizHistory) != 1 || p.Points != 10 {
		t.Errorf("history %d, points %d", len(p.QuizHistory), p.Points)
	}
}

func TestServiceMatchRewardsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.provider.pairs = []Pair{{"H2O", "nước"}, {"O2", "oxy"}}

	if _, err := f.svc.StartMatch(ctx, 1, "khoa học"); err != nil {
		t.Fatalf("StartMatch() = %v", err)
	}
	f.svc.MatchPair(ctx, 1, 1, 1) // ошибка: справа первым стоит oxy
	f.svc.MatchPair(ctx, 1, 1, 2)
	r, ok, err := f.svc.MatchPair(ctx, 1, 2, 1)
	if err != nil || !ok || !r.Done() || !r.Rewarded || r.Mistakes != 1 {
		t.Fatalf("MatchPair() = %+v, %v, %v", r, ok, err)
	}
	if _, _, err := f.svc.MatchPair(ctx, 1, 2, 1); !errors.Is(err, common.ErrRoundFinished) {
		t.Fatalf("MatchPair() after done = %v", err)
	}
	p, _ := f.profiles.Get(ctx, 1)
	if p.Points != 20 {
		t.Errorf("points = %d, want 20", p.Points)
	}
}

func TestServiceMatchRewardRetried(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.provider.pairs = []Pair{{"H2O", "nước"}, {"O2", "oxy"}}

	if _, err := f.svc.StartMatch(ctx, 1, "khoa học"); err != nil {
		t.Fatalf("StartMatch() = %v", err)
	}
	f.svc.MatchPair(ctx, 1, 1, 2)

	f.store.failUpdate = true
	r, _, err := f.svc.MatchPair(ctx, 1, 2, 1)
	if err == nil || !r.Done() || r.Rewarded {
		t.Fatalf("MatchPair() with failing store = %+v, %v", r, err)
	}

	f.store.failUpdate = false
	r, ok, err := f.svc.MatchPair(ctx, 1, 2, 1)
	if err != nil || !ok || !r.Rewarded {
		t.Fatalf("retry MatchPair() = %+v, %v, %v", r, ok, err)
	}
	if _, _, err := f.svc.MatchPair(ctx, 1, 2, 1); !errors.Is(err, common.ErrRoundFinished) {
		t.Fatalf("MatchPair() after reward = %v", err)
	}
	p, _ := f.profiles.Get(ctx, 1)
	if p.Points != 20 {
		t.Errorf("points = %d, want 20", p.Points)
	}
}

func TestServiceSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.Start(ctx, 1, "toán học"); err != nil {
		t.Fatal(err)
	}
	f.now = f.now.Add(20 * time.Minute)
	if _, err := f.svc.Start(ctx, 2, "toán học"); err != nil {
		t.Fatal(err)
	}

	f.now = f.now.Add(15 * time.Minute)
	if n := f.svc.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	f.svc.mu.Lock()
	_, kept := f.svc.users[2]
	_, stale := f.svc.users[1]
	f.svc.mu.Unlock()
	if !kept || stale {
		t.Errorf("users after sweep: kept=%v stale=%v", kept, stale)
	}
}

func TestServiceFromTextEmpty(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.FromText(context.Background(), 1, "  \n "); !errors.Is(err, common.ErrEmptyText) {
		t.Fatalf("FromText(\"\") = %v", err)
	}
	if f.svc.Session(1).State != StateIdle {
		t.Error("empty text must not start loading")
	}
}

func TestServiceFeatureFlags(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc.settings.SpeedEnabled = false
	f.svc.settings.MatchEnabled = false
	if _, err := f.svc.StartSpeed(ctx, 1, "toán học"); !errors.Is(err, common.ErrFeatureDisabled) {
		t.Errorf("StartSpeed() = %v", err)
	}
	if _, err := f.svc.StartMatch(ctx, 1, "toán học"); !errors.Is(err, common.ErrFeatureDisabled) {
		t.Errorf("StartMatch() = %v", err)
	}
}

