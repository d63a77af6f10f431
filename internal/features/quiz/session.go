// Package quiz — session.go: состояние одного вопроса.
//
//	idle → loading → active → answered → idle | loading
//
// Ответ принимается ровно один раз, на переходе active → answered.
package quiz

import (
	"time"

	"serotonyl.ru/lumi-bot/internal/common"
)

// State — состояние вопроса.
type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateActive   State = "active"
	StateAnswered State = "answered"
)

// Session — текущий вопрос ученика.
type Session struct {
	State      State
	Topic      string
	QuestionID string
	Question   Question
	Selected   int
	Correct    bool
	AnsweredAt time.Time
	Claimed    bool // бонус за пояснение получен
	Replacing  bool // идёт замена вопроса по пропуску, старый вопрос остаётся активным
}

// BeginLoading начинает загрузку вопроса по теме.
// Из active перейти нельзя (для этого есть пропуск, см. BeginSkip).
func (s *Session) BeginLoading(topic string) error {
	switch s.State {
	case StateLoading:
		return common.ErrQuizBusy
	case StateActive:
		return common.ErrQuizInProgress
	}
	*s = Session{State: StateLoading, Topic: topic}
	return nil
}

// BeginSkip отмечает, что для активного вопроса запрошена замена.
// Вопрос остаётся активным, пока новый не загружен.
func (s *Session) BeginSkip() error {
	if s.State != StateActive {
		return common.ErrQuizNotActive
	}
	if s.Replacing {
		return common.ErrQuizBusy
	}
	s.Replacing = true
	return nil
}

// CancelSkip оставляет прежний вопрос, замена не состоялась.
func (s *Session) CancelSkip() {
	s.Replacing = false
}

// SkipPending — замена для вопроса questionID всё ещё ожидается.
func (s *Session) SkipPending(questionID string) bool {
	return s.State == StateActive && s.Replacing && s.QuestionID == questionID
}

// Replace ставит новый вопрос вместо пропущенного.
func (s *Session) Replace(questionID string, q Question) {
	*s = Session{State: StateActive, Topic: s.Topic, QuestionID: questionID, Question: q}
}

// Activate показывает загруженный вопрос.
func (s *Session) Activate(questionID string, q Question) {
	s.State = StateActive
	s.QuestionID = questionID
	s.Question = q
}

// Fail возвращает в idle после ошибки провайдера.
func (s *Session) Fail() {
	*s = Session{State: StateIdle, Topic: s.Topic}
}

// CheckAnswer проверяет, можно ли принять ответ option на вопрос questionID,
// и возвращает, верен ли он. Состояние не меняется.
func (s *Session) CheckAnswer(questionID string, option int) (bool, error) {
	if s.State != StateActive || s.QuestionID != questionID {
		return false, common.ErrQuizNotActive
	}
	if option < 0 || option >= len(s.Question.Options) {
		return false, common.ErrInvalidOption
	}
	return option == s.Question.CorrectIndex, nil
}

// MarkAnswered фиксирует ответ.
func (s *Session) MarkAnswered(option int, correct bool, at time.Time) {
	s.State = StateAnswered
	s.Replacing = false
	s.Selected = option
	s.Correct = correct
	s.AnsweredAt = at
}

// CheckClaim проверяет, можно ли забрать бонус за пояснение в момент now.
func (s *Session) CheckClaim(now time.Time, readLock time.Duration) error {
	if s.State != StateAnswered {
		return common.ErrQuizNotAnswered
	}
	if s.Claimed {
		return common.ErrAlreadyClaimed
	}
	if now.Sub(s.AnsweredAt) < readLock {
		return common.ErrExplanationLocked
	}
	return nil
}

// ClaimWait — сколько ещё ждать до бонуса (0, если уже можно).
func (s *Session) ClaimWait(now time.Time, readLock time.Duration) time.Duration {
	return max(0, readLock-now.Sub(s.AnsweredAt))
}
