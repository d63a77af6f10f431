package quiz

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/economy"
	"serotonyl.ru/lumi-bot/internal/features/profile"
)

// TopicFromText — тема для вопросов, созданных по тексту ученика.
const TopicFromText = "tài liệu"

// Settings — параметры викторины.
type Settings struct {
	ExplanationBonus int64
	MatchBonus       int64
	ReadLock         time.Duration
	ProviderTimeout  time.Duration
	SessionTTL       time.Duration
	SpeedSize        int
	SpeedDuration    time.Duration
	SpeedEnabled     bool
	MatchEnabled     bool
}

// userState — всё, что бот помнит об игре ученика между сообщениями.
type userState struct {
	mu      sync.Mutex
	session Session
	speed   *SpeedRound
	match   *MatchRound
	seen    time.Time
}

// Service ведёт вопросы, раунды и мини-игры. Состояние игр живёт в памяти,
// профиль меняется только через profile.Service.Apply.
type Service struct {
	profiles  *profile.Service
	provider  Provider
	processor *Processor
	settings  Settings
	newID     common.IDGenerator
	shuffle   func([]int)

	mu    sync.Mutex
	users map[int64]*userState
}

// NewService создаёт сервис викторины.
func NewService(profiles *profile.Service, provider Provider, processor *Processor, settings Settings, newID common.IDGenerator) *Service {
	return &Service{
		profiles:  profiles,
		provider:  provider,
		processor: processor,
		settings:  settings,
		newID:     newID,
		shuffle: func(xs []int) {
			rand.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
		},
		users: make(map[int64]*userState),
	}
}

// WithShuffle подменяет перемешивание (для тестов).
func (s *Service) WithShuffle(shuffle func([]int)) *Service {
	s.shuffle = shuffle
	return s
}

// Settings возвращает параметры викторины.
func (s *Service) Settings() Settings { return s.settings }

// state возвращает состояние ученика. Если он долго не играл, всё забывается.
func (s *Service) state(userID int64) *userState {
	now := s.profiles.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.users[userID]
	if !ok || (s.settings.SessionTTL > 0 && now.Sub(st.seen) > s.settings.SessionTTL) {
		st = &userState{session: Session{State: StateIdle}}
		s.users[userID] = st
	}
	st.seen = now
	return st
}

// Session возвращает копию текущего вопроса.
func (s *Service) Session(userID int64) Session {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.session
}

// Start загружает вопрос по теме.
func (s *Service) Start(ctx context.Context, userID int64, topic string) (Session, error) {
	topic = strings.TrimSpace(topic)
	st := s.state(userID)
	st.mu.Lock()
	err := st.session.BeginLoading(topic)
	st.mu.Unlock()
	if err != nil {
		return Session{}, err
	}
	return s.load(ctx, userID, st, topic)
}

// Next — следующий вопрос по той же теме после ответа.
func (s *Service) Next(ctx context.Context, userID int64) (Session, error) {
	st := s.state(userID)
	st.mu.Lock()
	if st.session.State != StateAnswered {
		st.mu.Unlock()
		if st.session.State == StateActive {
			return Session{}, common.ErrQuizInProgress
		}
		return Session{}, common.ErrQuizNotAnswered
	}
	topic := st.session.Topic
	err := st.session.BeginLoading(topic)
	st.mu.Unlock()
	if err != nil {
		return Session{}, err
	}
	return s.load(ctx, userID, st, topic)
}

// Skip заменяет активный вопрос новым за один пропуск.
// Пропуск списывается только вместе с показом нового вопроса: если провайдер
// не ответил или пропуска нет, остаётся прежний вопрос и инвентарь не меняется.
func (s *Service) Skip(ctx context.Context, userID int64) (Session, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	st := s.state(userID)
	st.mu.Lock()
	if st.session.State != StateActive {
		st.mu.Unlock()
		return Session{}, common.ErrQuizNotActive
	}
	if p.Inventory.SkipPasses <= 0 {
		st.mu.Unlock()
		return Session{}, common.ErrNoPassesAvailable
	}
	if err := st.session.BeginSkip(); err != nil {
		st.mu.Unlock()
		return Session{}, err
	}
	oldID, topic := st.session.QuestionID, st.session.Topic
	st.mu.Unlock()

	q, err := s.fetch(ctx, topic, p.QuizHistory)

	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.session.SkipPending(oldID) {
		// пока грузили, на вопрос ответили или сессия истекла
		return Session{}, common.ErrQuizNotActive
	}
	if err != nil {
		st.session.CancelSkip()
		log.WithError(err).WithField("user_id", userID).Warn("Провайдер не вернул вопрос на замену")
		return Session{}, fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err)
	}
	if _, err := s.profiles.Apply(ctx, userID, profile.ReasonSkipQuestion, economy.ConsumeSkipPass); err != nil {
		st.session.CancelSkip()
		return Session{}, err
	}
	st.session.Replace(s.newID(), q)
	return st.session, nil
}

// FromText создаёт вопрос по тексту, который прислал ученик.
func (s *Service) FromText(ctx context.Context, userID int64, text string) (Session, error) {
	if strings.TrimSpace(text) == "" {
		return Session{}, common.ErrEmptyText
	}
	st := s.state(userID)
	st.mu.Lock()
	err := st.session.BeginLoading(TopicFromText)
	st.mu.Unlock()
	if err != nil {
		return Session{}, err
	}

	pctx, cancel := context.WithTimeout(ctx, s.settings.ProviderTimeout)
	defer cancel()
	q, err := s.provider.RequestQuestionFromText(pctx, text)
	return s.finishLoad(userID, st, q, err)
}

// load запрашивает вопрос у провайдера вне блокировки.
func (s *Service) load(ctx context.Context, userID int64, st *userState, topic string) (Session, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		st.mu.Lock()
		st.session.Fail()
		st.mu.Unlock()
		return Session{}, err
	}
	q, err := s.fetch(ctx, topic, p.QuizHistory)
	return s.finishLoad(userID, st, q, err)
}

// fetch получает и проверяет вопрос с учётом истории ответов по теме.
func (s *Service) fetch(ctx context.Context, topic string, history []profile.QuizRecord) (Question, error) {
	pctx, cancel := context.WithTimeout(ctx, s.settings.ProviderTimeout)
	defer cancel()
	q, err := s.provider.RequestQuestion(pctx, topic, SelectDifficulty(topic, history))
	if err != nil {
		return Question{}, err
	}
	return q, q.Validate()
}

func (s *Service) finishLoad(userID int64, st *userState, q Question, err error) (Session, error) {
	if err == nil {
		err = q.Validate()
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.session.State != StateLoading {
		// пока грузили, сессия истекла или была сброшена
		return Session{}, common.ErrQuizNotActive
	}
	if err != nil {
		st.session.Fail()
		log.WithError(err).WithField("user_id", userID).Warn("Провайдер не вернул вопрос")
		return Session{}, fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err)
	}
	st.session.Activate(s.newID(), q)
	return st.session, nil
}

// Answer принимает ответ на активный вопрос ровно один раз.
func (s *Service) Answer(ctx context.Context, userID int64, questionID string, option int) (Session, AnswerResult, error) {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	correct, err := st.session.CheckAnswer(questionID, option)
	if err != nil {
		return Session{}, AnswerResult{}, err
	}
	res, err := s.record(ctx, userID, st.session.Topic, correct)
	if err != nil {
		return Session{}, AnswerResult{}, err
	}
	st.session.MarkAnswered(option, correct, res.Record.Timestamp)
	return st.session, res, nil
}

// record пропускает ответ через Processor внутри Apply.
func (s *Service) record(ctx context.Context, userID int64, topic string, correct bool) (AnswerResult, error) {
	now := s.profiles.Now()
	var res AnswerResult
	_, err := s.profiles.Apply(ctx, userID, profile.ReasonQuizAnswer, func(p profile.Profile) (profile.Profile, error) {
		next, r, err := s.processor.RecordAnswer(p, topic, correct, now)
		res = r
		return next, err
	})
	return res, err
}

// Claim начисляет бонус за прочитанное пояснение.
func (s *Service) Claim(ctx context.Context, userID int64) (profile.Profile, error) {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.session.CheckClaim(s.profiles.Now(), s.settings.ReadLock); err != nil {
		return profile.Profile{}, err
	}
	p, err := s.profiles.Apply(ctx, userID, profile.ReasonExplanation, func(p profile.Profile) (profile.Profile, error) {
		return economy.CreditPoints(p, s.settings.ExplanationBonus)
	})
	if err != nil {
		return profile.Profile{}, err
	}
	st.session.Claimed = true
	return p, nil
}

// ClaimWait — сколько осталось до бонуса за пояснение.
func (s *Service) ClaimWait(userID int64) time.Duration {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.session.ClaimWait(s.profiles.Now(), s.settings.ReadLock)
}

// StartSpeed запускает скоростной раунд.
func (s *Service) StartSpeed(ctx context.Context, userID int64, topic string) (*SpeedRound, error) {
	if !s.settings.SpeedEnabled {
		return nil, common.ErrFeatureDisabled
	}
	pctx, cancel := context.WithTimeout(ctx, s.settings.ProviderTimeout)
	defer cancel()
	qs, err := s.provider.RequestQuestionBatch(pctx, topic, s.settings.SpeedSize)
	if err == nil && len(qs) == 0 {
		err = fmt.Errorf("пустой набор вопросов")
	}
	for i := 0; err == nil && i < len(qs); i++ {
		err = qs[i].Validate()
	}
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Провайдер не вернул набор вопросов")
		return nil, fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err)
	}

	round := &SpeedRound{
		ID:        s.newID(),
		Topic:     topic,
		Questions: qs,
		Deadline:  s.profiles.Now().Add(s.settings.SpeedDuration),
	}
	st := s.state(userID)
	st.mu.Lock()
	st.speed = round
	snapshot := *round
	st.mu.Unlock()
	return &snapshot, nil
}

// AnswerSpeed принимает ответ на вопрос index раунда roundID.
func (s *Service) AnswerSpeed(ctx context.Context, userID int64, roundID string, index, option int) (SpeedRound, bool, error) {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.speed == nil {
		return SpeedRound{}, false, common.ErrQuizNotActive
	}
	r := st.speed
	correct, err := r.CheckAnswer(roundID, index, option, s.profiles.Now())
	if err != nil {
		return *r, false, err
	}
	if _, err := s.record(ctx, userID, r.Topic, correct); err != nil {
		return *r, false, err
	}
	r.Advance(correct)
	return *r, correct, nil
}

// StartMatch запускает «найди пару».
func (s *Service) StartMatch(ctx context.Context, userID int64, topic string) (MatchRound, error) {
	if !s.settings.MatchEnabled {
		return MatchRound{}, common.ErrFeatureDisabled
	}
	pctx, cancel := context.WithTimeout(ctx, s.settings.ProviderTimeout)
	defer cancel()
	pairs, err := s.provider.RequestPairs(pctx, topic)
	if err == nil {
		err = ValidatePairs(pairs)
	}
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Провайдер не вернул пары")
		return MatchRound{}, fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err)
	}

	round := NewMatchRound(s.newID(), topic, pairs, s.shuffle)
	st := s.state(userID)
	st.mu.Lock()
	st.match = round
	snapshot := round.Snapshot()
	st.mu.Unlock()
	return snapshot, nil
}

// MatchPair сопоставляет пару. Когда найдены все пары, бонус начисляется один раз.
func (s *Service) MatchPair(ctx context.Context, userID int64, left, right int) (MatchRound, bool, error) {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.match == nil {
		return MatchRound{}, false, common.ErrQuizNotActive
	}
	r := st.match
	if r.Done() && !r.Rewarded {
		// прошлое начисление не удалось, раунд уже собран
		if err := s.rewardMatch(ctx, userID, r); err != nil {
			return r.Snapshot(), false, err
		}
		return r.Snapshot(), true, nil
	}
	ok, err := r.Match(left, right)
	if err != nil {
		return r.Snapshot(), false, err
	}
	if r.Done() {
		if err := s.rewardMatch(ctx, userID, r); err != nil {
			return r.Snapshot(), ok, err
		}
	}
	return r.Snapshot(), ok, nil
}

func (s *Service) rewardMatch(ctx context.Context, userID int64, r *MatchRound) error {
	if _, err := s.profiles.Apply(ctx, userID, profile.ReasonMatchRound, func(p profile.Profile) (profile.Profile, error) {
		return economy.CreditPoints(p, s.settings.MatchBonus)
	}); err != nil {
		return err
	}
	r.Rewarded = true
	return nil
}

// Sweep забывает учеников, которые не играли дольше SessionTTL.
// Возвращает число удалённых записей.
func (s *Service) Sweep() int {
	if s.settings.SessionTTL <= 0 {
		return 0
	}
	now := s.profiles.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for userID, st := range s.users {
		if now.Sub(st.seen) > s.settings.SessionTTL {
			delete(s.users, userID)
			removed++
		}
	}
	return removed
}
