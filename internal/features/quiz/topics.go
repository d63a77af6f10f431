// Package quiz — викторины: выбор сложности, учёт ответов,
// состояние вопроса, скоростной раунд и «найди пару».
// topics.go сопоставляет введённую тему с каноническим тегом.
package quiz

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Topic — канонический тег темы.
type Topic string

const (
	TopicScience   Topic = "science"
	TopicHistory   Topic = "history"
	TopicMath      Topic = "math"
	TopicGeography Topic = "geography"
)

// DefaultTopics — темы, которые предлагаются кнопками.
var DefaultTopics = []Topic{TopicScience, TopicHistory, TopicMath, TopicGeography}

// topicForms — допустимые написания темы. Первое — подпись для интерфейса.
var topicForms = map[Topic][]string{
	TopicScience:   {"khoa học", "science"},
	TopicHistory:   {"lịch sử", "history"},
	TopicMath:      {"toán học", "math", "mathematics"},
	TopicGeography: {"địa lý", "geography"},
}

// formIndex — нормализованное написание → тег.
var formIndex = func() map[string]Topic {
	idx := make(map[string]Topic)
	for t, forms := range topicForms {
		for _, f := range forms {
			idx[NormalizeTopic(f)] = t
		}
	}
	return idx
}()

// NormalizeTopic приводит строку к виду для сравнения: NFC, свёртка регистра,
// одиночные пробелы.
func NormalizeTopic(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(norm.NFC.String(s))
}

// CanonicalTopic ищет тег по любому допустимому написанию.
func CanonicalTopic(s string) (Topic, bool) {
	t, ok := formIndex[NormalizeTopic(s)]
	return t, ok
}

// IsMathTopic — тема относится к математике.
func IsMathTopic(s string) bool {
	t, ok := CanonicalTopic(s)
	return ok && t == TopicMath
}

// SameTopic сравнивает темы: известные — по тегу, остальные — по нормализованной строке.
func SameTopic(a, b string) bool {
	ta, okA := CanonicalTopic(a)
	tb, okB := CanonicalTopic(b)
	if okA && okB {
		return ta == tb
	}
	return NormalizeTopic(a) == NormalizeTopic(b)
}

// Label — подпись темы на вьетнамском.
func (t Topic) Label() string {
	if forms, ok := topicForms[t]; ok {
		return forms[0]
	}
	return string(t)
}
