// Package quiz — rounds.go: скоростной раунд и «найди пару».
package quiz

import (
	"time"

	"serotonyl.ru/lumi-bot/internal/common"
)

// SpeedRound — серия вопросов на время.
type SpeedRound struct {
	ID        string
	Topic     string
	Questions []Question
	Index     int // текущий вопрос
	Correct   int
	Deadline  time.Time
	Finished  bool
}

// Current возвращает текущий вопрос.
func (r *SpeedRound) Current() (Question, bool) {
	if r.Finished || r.Index >= len(r.Questions) {
		return Question{}, false
	}
	return r.Questions[r.Index], true
}

// CheckAnswer проверяет ответ на текущий вопрос. После дедлайна
// раунд закрывается и ответ не принимается.
func (r *SpeedRound) CheckAnswer(roundID string, index, option int, now time.Time) (bool, error) {
	if r.ID != roundID || r.Index != index {
		return false, common.ErrQuizNotActive
	}
	if r.Finished {
		return false, common.ErrRoundFinished
	}
	if !now.Before(r.Deadline) {
		r.Finished = true
		return false, common.ErrRoundExpired
	}
	q := r.Questions[r.Index]
	if option < 0 || option >= len(q.Options) {
		return false, common.ErrInvalidOption
	}
	return option == q.CorrectIndex, nil
}

// Advance учитывает принятый ответ и переходит к следующему вопросу.
func (r *SpeedRound) Advance(correct bool) {
	if correct {
		r.Correct++
	}
	r.Index++
	if r.Index >= len(r.Questions) {
		r.Finished = true
	}
}

// MatchRound — мини-игра «найди пару». Правый столбец перемешан:
// RightOrder[i] — индекс пары, показанной на i-й позиции справа.
type MatchRound struct {
	ID         string
	Topic      string
	Pairs      []Pair
	RightOrder []int
	Matched    []bool
	Mistakes   int
	Rewarded   bool
}

// NewMatchRound создаёт раунд, перемешивая правый столбец функцией shuffle.
func NewMatchRound(id, topic string, pairs []Pair, shuffle func([]int)) *MatchRound {
	order := make([]int, len(pairs))
	for i := range order {
		order[i] = i
	}
	shuffle(order)
	return &MatchRound{
		ID:         id,
		Topic:      topic,
		Pairs:      pairs,
		RightOrder: order,
		Matched:    make([]bool, len(pairs)),
	}
}

// Match сопоставляет левый элемент left с правым right (нумерация с 1).
// Возвращает, верна ли пара. Уже найденную пару выбрать нельзя.
func (r *MatchRound) Match(left, right int) (bool, error) {
	if r.Done() {
		return false, common.ErrRoundFinished
	}
	l, rp := left-1, right-1
	if l < 0 || l >= len(r.Pairs) || rp < 0 || rp >= len(r.RightOrder) || r.Matched[l] || r.Matched[r.RightOrder[rp]] {
		return false, common.ErrInvalidOption
	}
	if r.RightOrder[rp] != l {
		r.Mistakes++
		return false, nil
	}
	r.Matched[l] = true
	return true, nil
}

// Done — все пары найдены.
func (r *MatchRound) Done() bool {
	for _, m := range r.Matched {
		if !m {
			return false
		}
	}
	return true
}

// Snapshot — копия раунда для отображения.
func (r *MatchRound) Snapshot() MatchRound {
	c := *r
	c.Matched = append([]bool(nil), r.Matched...)
	return c
}
