// Package economy управляет баллами (BP): начисление, траты, магазин,
// обмен баллов на минуты и ранги.
// models.go описывает каталог магазина, награды и ранги.
package economy

// Item — товар магазина.
type Item string

const (
	ItemExtend Item = "extend" // +минуты к дневному лимиту
	ItemSkip   Item = "skip"   // пропуск вопроса
	ItemAvatar Item = "avatar" // новый аватар
)

// Offer — цена товара и сколько минут он даёт (только для extend и обмена).
type Offer struct {
	Cost    int64
	Minutes int
}

// Catalog — цены магазина и курс обмена баллов на минуты.
type Catalog struct {
	Extend Offer
	Skip   Offer
	Avatar Offer
	Redeem Offer // 10 BP → 10 минут
}

// DefaultCatalog — цены по умолчанию.
func DefaultCatalog() Catalog {
	return Catalog{
		Extend: Offer{Cost: 50, Minutes: 15},
		Skip:   Offer{Cost: 30},
		Avatar: Offer{Cost: 100},
		Redeem: Offer{Cost: 10, Minutes: 10},
	}
}

// Offer возвращает цену товара.
func (c Catalog) Offer(item Item) (Offer, bool) {
	switch item {
	case ItemExtend:
		return c.Extend, true
	case ItemSkip:
		return c.Skip, true
	case ItemAvatar:
		return c.Avatar, true
	}
	return Offer{}, false
}

// Rewards — сколько баллов дают за действия.
type Rewards struct {
	QuizCorrect int64 // верный ответ
	StreakDaily int64 // ежедневный бонус за стрик
	Explanation int64 // прочитанное пояснение
	MatchRound  int64 // завершённый раунд «найди пару»
}

// DefaultRewards — награды по умолчанию.
func DefaultRewards() Rewards {
	return Rewards{QuizCorrect: 10, StreakDaily: 50, Explanation: 5, MatchRound: 20}
}

// Rank — звание по сумме заработанных за всё время баллов.
type Rank string

const (
	RankRookie      Rank = "rookie"
	RankScholar     Rank = "scholar"
	RankPhilosopher Rank = "philosopher"
	RankProfessor   Rank = "professor"
)

// rankThresholds — от старшего к младшему.
var rankThresholds = []struct {
	rank Rank
	min  int64
}{
	{RankProfessor, 10000},
	{RankPhilosopher, 5000},
	{RankScholar, 1000},
	{RankRookie, 0},
}

// RankOf возвращает звание для totalPointsEarned.
func RankOf(totalEarned int64) Rank {
	for _, t := range rankThresholds {
		if totalEarned >= t.min {
			return t.rank
		}
	}
	return RankRookie
}

// NextRank возвращает следующее звание и сколько баллов до него осталось.
// Для старшего звания ok == false.
func NextRank(totalEarned int64) (next Rank, left int64, ok bool) {
	for i := len(rankThresholds) - 1; i >= 0; i-- {
		t := rankThresholds[i]
		if totalEarned < t.min {
			return t.rank, t.min - totalEarned, true
		}
	}
	return "", 0, false
}

// Title — название звания для сообщений.
func (r Rank) Title() string {
	switch r {
	case RankProfessor:
		return "🎓 Giáo sư"
	case RankPhilosopher:
		return "🦉 Triết gia"
	case RankScholar:
		return "📚 Học giả"
	default:
		return "🌱 Tân binh"
	}
}
