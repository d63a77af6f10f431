package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2, time.Minute, func() time.Time { return now })

	if !rl.Allow(1) || !rl.Allow(1) {
		t.Fatalf("первые два запроса должны пройти")
	}
	if rl.Allow(1) {
		t.Fatalf("третий запрос в окне должен быть отклонён")
	}
	if !rl.Allow(2) {
		t.Fatalf("лимит считается отдельно для каждого пользователя")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow(1) {
		t.Fatalf("после окна запрос должен пройти")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0, time.Minute, time.Now)
	for i := 0; i < 100; i++ {
		if !rl.Allow(1) {
			t.Fatalf("limit=0 не должен ограничивать (запрос %d)", i)
		}
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rl := newRateLimiter(5, time.Minute, func() time.Time { return now })
	rl.Allow(1)
	rl.Allow(2)

	now = now.Add(30 * time.Second)
	rl.Allow(2)

	now = now.Add(45 * time.Second)
	rl.cleanup()

	if _, ok := rl.requests[1]; ok {
		t.Errorf("пользователь 1 без свежих запросов должен быть удалён")
	}
	if got := len(rl.requests[2]); got != 1 {
		t.Errorf("у пользователя 2 осталось %d запросов, ожидался 1", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"xin chào", 50, "xin chào"},
		{"Tiếng Việt", 4, "Tiến..."},
		{"", 3, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, ожидалось %q", tt.in, tt.limit, got, tt.want)
		}
	}
}
