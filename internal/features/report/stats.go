// Package report собирает отчёты для родителей: детерминированную
// статистику, текстовую сводку от модели, XLSX-выгрузку и утренний дайджест.
package report

import (
	"fmt"
	"sort"
	"strings"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/profile"
	"serotonyl.ru/lumi-bot/internal/features/usage"
)

// TopicStat — ответы по одной теме.
type TopicStat struct {
	Topic   string `json:"topic"`
	Total   int    `json:"total"`
	Correct int    `json:"correct"`
}

// AppStat — расход в приложении за сегодня.
type AppStat struct {
	Name     string           `json:"name"`
	Category profile.Category `json:"category"`
	Minutes  int              `json:"usedMinutes"`
	Limit    int              `json:"limit"`
	Locked   bool             `json:"locked"`
}

// CategoryStat — расход по категории.
type CategoryStat struct {
	Category profile.Category `json:"category"`
	Minutes  int              `json:"minutes"`
}

// Stats — всё, что родитель видит в отчёте.
type Stats struct {
	TotalQuestions int            `json:"totalQuestions"`
	CorrectAnswers int            `json:"correctAnswers"`
	Accuracy       int            `json:"accuracy"` // проценты, округлённые
	Topics         []TopicStat    `json:"topicStats"`
	Apps           []AppStat      `json:"appUsage"`
	UsedToday      int            `json:"usedToday"`
	DailyLimit     int            `json:"dailyLimit"`
	AverageUsed    int            `json:"averageUsed"`
	Categories     []CategoryStat `json:"categories"`
	StreakDays     int            `json:"streakDays"`
	Points         int64          `json:"points"`
	TotalEarned    int64          `json:"totalEarned"`
}

var categoryOrder = []profile.Category{
	profile.CategorySocial,
	profile.CategoryEntertainment,
	profile.CategoryGaming,
	profile.CategoryEducation,
}

// BuildStats считает статистику по снимку. Темы идут в порядке первого
// появления в истории, категории — в фиксированном порядке.
func BuildStats(p profile.Profile) Stats {
	s := Stats{
		TotalQuestions: len(p.QuizHistory),
		UsedToday:      p.UsedTime,
		DailyLimit:     p.DailyLimit,
		AverageUsed:    usage.AverageUsed(p),
		StreakDays:     p.StreakDays,
		Points:         p.Points,
		TotalEarned:    p.TotalPointsEarned,
	}

	idx := make(map[string]int)
	for _, rec := range p.QuizHistory {
		i, ok := idx[rec.Topic]
		if !ok {
			i = len(s.Topics)
			idx[rec.Topic] = i
			s.Topics = append(s.Topics, TopicStat{Topic: rec.Topic})
		}
		s.Topics[i].Total++
		if rec.IsCorrect {
			s.Topics[i].Correct++
			s.CorrectAnswers++
		}
	}
	s.Accuracy = percent(s.CorrectAnswers, s.TotalQuestions)

	for _, app := range p.Apps {
		s.Apps = append(s.Apps, AppStat{
			Name:     app.Name,
			Category: app.Category,
			Minutes:  app.UsedTime,
			Limit:    app.Limit,
			Locked:   usage.IsLocked(app),
		})
	}

	byCat := usage.CategoryUsage(p)
	for _, c := range categoryOrder {
		if m, ok := byCat[c]; ok {
			s.Categories = append(s.Categories, CategoryStat{Category: c, Minutes: m})
			delete(byCat, c)
		}
	}
	var rest []profile.Category
	for c := range byCat {
		rest = append(rest, c)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, c := range rest {
		s.Categories = append(s.Categories, CategoryStat{Category: c, Minutes: byCat[c]})
	}
	return s
}

// percent округляет part/total*100 до целого, половину вверх.
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return (part*200 + total) / (total * 2)
}

// WeakestTopic — тема с самой низкой точностью (минимум 3 ответа).
func (s Stats) WeakestTopic() (TopicStat, bool) {
	var best TopicStat
	found := false
	for _, t := range s.Topics {
		if t.Total < 3 {
			continue
		}
		if !found || t.Correct*best.Total < best.Correct*t.Total {
			best, found = t, true
		}
	}
	return best, found
}

// FormatStats — отчёт для родителя в чате.
func FormatStats(name string, s Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Báo cáo: %s\n\n", name)
	fmt.Fprintf(&sb, "❓ Câu hỏi: %d, đúng %d (%d%%)\n", s.TotalQuestions, s.CorrectAnswers, s.Accuracy)
	for _, t := range s.Topics {
		fmt.Fprintf(&sb, "  • %s: %d/%d\n", t.Topic, t.Correct, t.Total)
	}
	fmt.Fprintf(&sb, "\n⏱ Hôm nay: %s / %s\n", common.FormatMinutes(s.UsedToday), common.FormatMinutes(s.DailyLimit))
	fmt.Fprintf(&sb, "📈 Trung bình 7 ngày: %s\n", common.FormatMinutes(s.AverageUsed))
	for _, c := range s.Categories {
		fmt.Fprintf(&sb, "  • %s: %s\n", c.Category, common.FormatMinutes(c.Minutes))
	}
	fmt.Fprintf(&sb, "\n🔥 Chuỗi: %d ngày\n💰 Số dư: %s", s.StreakDays, common.FormatPoints(s.Points))
	return sb.String()
}

// FormatDigest — утренняя сводка за вчерашний день.
func FormatDigest(name string, p profile.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🌅 %s\n", name)
	if n := len(p.UsageHistory); n > 0 {
		d := p.UsageHistory[n-1]
		mark := "✅"
		if d.Limit > 0 && d.Used > d.Limit {
			mark = "⚠️"
		}
		fmt.Fprintf(&sb, "%s %s: %s / %s\n", mark, common.FormatDate(d.Date), common.FormatMinutes(d.Used), common.FormatMinutes(d.Limit))
	}
	fmt.Fprintf(&sb, "🔥 Chuỗi: %d ngày · 💰 %s", p.StreakDays, common.FormatPoints(p.Points))
	return sb.String()
}
