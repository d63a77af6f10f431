package quiz

import "serotonyl.ru/lumi-bot/internal/features/profile"

// Tier — уровень сложности следующего вопроса.
type Tier string

const (
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
)

// Difficulty передаётся провайдеру вопросов.
type Difficulty struct {
	Tier     Tier
	Guidance string // пусто, если особых указаний нет
}

const (
	difficultyWindow    = 5 // сколько последних ответов по теме смотрим
	difficultyMinSignal = 3 // меньше — недостаточно данных
)

const (
	guidanceEasy = "Học sinh đang gặp khó khăn với chủ đề này. Hãy tạo một câu hỏi dễ hơn, tập trung vào kiến thức cơ bản nhất."
	guidanceHard = "Học sinh đang làm rất tốt chủ đề này. Hãy tạo một câu hỏi khó hơn, đòi hỏi tư duy sâu."
)

// SelectDifficulty выбирает сложность по последним ответам на эту тему:
// ≤1 верного из окна — easy, ≥4 — hard, иначе medium.
// Если ответов по теме меньше трёх — medium без указаний.
func SelectDifficulty(topic string, history []profile.QuizRecord) Difficulty {
	total, correct := 0, 0
	for i := len(history) - 1; i >= 0 && total < difficultyWindow; i-- {
		if !SameTopic(history[i].Topic, topic) {
			continue
		}
		total++
		if history[i].IsCorrect {
			correct++
		}
	}

	if total < difficultyMinSignal {
		return Difficulty{Tier: TierMedium}
	}
	switch {
	case correct <= 1:
		return Difficulty{Tier: TierEasy, Guidance: guidanceEasy}
	case correct >= 4:
		return Difficulty{Tier: TierHard, Guidance: guidanceHard}
	default:
		return Difficulty{Tier: TierMedium}
	}
}
