package quiz

import (
	"fmt"
	"strconv"
	"strings"
)

// Действия inline-кнопок викторины.
const (
	ActionAnswer = "qa" // qa:<questionID>:<option>
	ActionNext   = "qn"
	ActionClaim  = "qc"
	ActionSkip   = "qs"
	ActionTopic  = "qt" // qt:<topic>
	ActionSpeed  = "sp" // sp:<roundID>:<index>:<option>
)

// Callback — разобранные данные кнопки.
type Callback struct {
	Action string
	ID     string
	Topic  Topic
	Index  int
	Option int
}

// OwnsCallback — кнопка относится к викторине.
func OwnsCallback(data string) bool {
	action, _, _ := strings.Cut(data, ":")
	switch action {
	case ActionAnswer, ActionNext, ActionClaim, ActionSkip, ActionTopic, ActionSpeed:
		return true
	}
	return false
}

// ParseCallback разбирает строку callback data.
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(data, ":")
	cb := Callback{Action: parts[0]}
	switch cb.Action {
	case ActionNext, ActionClaim, ActionSkip:
		if len(parts) != 1 {
			return Callback{}, fmt.Errorf("лишние аргументы в %q", data)
		}
	case ActionTopic:
		if len(parts) != 2 || parts[1] == "" {
			return Callback{}, fmt.Errorf("нет темы в %q", data)
		}
		cb.Topic = Topic(parts[1])
	case ActionAnswer:
		if len(parts) != 3 || parts[1] == "" {
			return Callback{}, fmt.Errorf("некорректный ответ %q", data)
		}
		opt, err := strconv.Atoi(parts[2])
		if err != nil {
			return Callback{}, fmt.Errorf("вариант в %q: %w", data, err)
		}
		cb.ID, cb.Option = parts[1], opt
	case ActionSpeed:
		if len(parts) != 4 || parts[1] == "" {
			return Callback{}, fmt.Errorf("некорректный ответ раунда %q", data)
		}
		idx, err := strconv.Atoi(parts[2])
		if err != nil {
			return Callback{}, fmt.Errorf("номер вопроса в %q: %w", data, err)
		}
		opt, err := strconv.Atoi(parts[3])
		if err != nil {
			return Callback{}, fmt.Errorf("вариант в %q: %w", data, err)
		}
		cb.ID, cb.Index, cb.Option = parts[1], idx, opt
	default:
		return Callback{}, fmt.Errorf("неизвестное действие %q", cb.Action)
	}
	return cb, nil
}

func answerData(questionID string, option int) string {
	return fmt.Sprintf("%s:%s:%d", ActionAnswer, questionID, option)
}

func speedData(roundID string, index, option int) string {
	return fmt.Sprintf("%s:%s:%d:%d", ActionSpeed, roundID, index, option)
}

// ResolveTopic превращает ввод ученика в тему для записи в историю:
// известные темы — подписью, остальное — как есть без лишних пробелов.
func ResolveTopic(input string) string {
	input = strings.Join(strings.Fields(input), " ")
	if t, ok := CanonicalTopic(input); ok {
		return t.Label()
	}
	return input
}
