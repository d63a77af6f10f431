package calendar

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"serotonyl.ru/lumi-bot/internal/common"
)

var hcm = time.FixedZone("ICT", 7*3600)

// 15/10/2026 10:00 по Хошимину
var now = time.Date(2026, 10, 15, 10, 0, 0, 0, hcm)

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    Draft
		wantErr error
	}{
		{"iso и вид", "2026-10-20 18:00 baitap Toán chương 2",
			Draft{"Toán chương 2", TypeHomework, time.Date(2026, 10, 20, 18, 0, 0, 0, hcm)}, nil},
		{"день и месяц", "20/10 7h30 thi Văn",
			Draft{"Văn", TypeExam, time.Date(2026, 10, 20, 7, 30, 0, 0, hcm)}, nil},
		{"прошедшая дата без года: следующий год", "1/3 19h Lý",
			Draft{"Lý", TypeStudy, time.Date(2027, 3, 1, 19, 0, 0, 0, hcm)}, nil},
		{"сегодня", "nay 21:15 Ôn từ vựng",
			Draft{"Ôn từ vựng", TypeStudy, time.Date(2026, 10, 15, 21, 15, 0, 0, hcm)}, nil},
		{"завтра", "mai 06:00 hoc Hóa",
			Draft{"Hóa", TypeStudy, time.Date(2026, 10, 16, 6, 0, 0, 0, hcm)}, nil},
		{"полная дата", "5/11/2026 08:00 Sử", Draft{"Sử", TypeStudy, time.Date(2026, 11, 5, 8, 0, 0, 0, hcm)}, nil},
		{"нет названия", "20/10 18:00 baitap", Draft{}, common.ErrInvalidEvent},
		{"мало аргументов", "20/10 18:00", Draft{}, common.ErrInvalidEvent},
		{"плохая дата", "31/02 18:00 Toán", Draft{}, common.ErrInvalidEvent},
		{"плохое время", "20/10 25:00 Toán", Draft{}, common.ErrInvalidEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDraft(strings.Fields(tt.args), now, hcm)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseDraft(%q) error = %v, want %v", tt.args, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Title != tt.want.Title || got.Type != tt.want.Type || !got.StartsAt.Equal(tt.want.StartsAt) {
				t.Errorf("ParseDraft(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func newTestService() (*Service, *time.Time) {
	clock := now
	svc := NewService(NewMemoryStore(), func() time.Time { return clock }, hcm, 30*time.Minute, common.NewSequenceGenerator("ev"))
	return svc, &clock
}

func TestPlanAndCancel(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	if _, err := svc.Plan(ctx, 1, strings.Fields("nay 09:00 Toán")); !errors.Is(err, common.ErrEventInPast) {
		t.Fatalf("Plan() in the past = %v", err)
	}
	for _, args := range []string{"mai 18:00 Lý", "nay 18:00 baitap Toán"} {
		if _, err := svc.Plan(ctx, 1, strings.Fields(args)); err != nil {
			t.Fatalf("Plan(%q) = %v", args, err)
		}
	}
	if _, err := svc.Plan(ctx, 2, strings.Fields("nay 20:00 Anh")); err != nil {
		t.Fatal(err)
	}

	events, err := svc.Upcoming(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].Title != "Toán" || events[1].Title != "Lý" {
		t.Fatalf("Upcoming() = %+v", events)
	}

	if _, err := svc.Cancel(ctx, 1, 3); !errors.Is(err, common.ErrEventNotFound) {
		t.Fatalf("Cancel(3) = %v", err)
	}
	e, err := svc.Cancel(ctx, 1, 1)
	if err != nil || e.Title != "Toán" {
		t.Fatalf("Cancel(1) = %+v, %v", e, err)
	}
	if events, _ := svc.Upcoming(ctx, 1); len(events) != 1 {
		t.Errorf("after cancel: %+v", events)
	}
	if events, _ := svc.Upcoming(ctx, 2); len(events) != 1 {
		t.Errorf("other student's events touched: %+v", events)
	}
}

func TestPlanLimit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	for i := 0; i < MaxUpcoming; i++ {
		if _, err := svc.Plan(ctx, 1, strings.Fields("mai 18:00 Toán")); err != nil {
			t.Fatalf("Plan(%d) = %v", i, err)
		}
	}
	if _, err := svc.Plan(ctx, 1, strings.Fields("mai 19:00 Toán")); !errors.Is(err, common.ErrLimitReached) {
		t.Errorf("Plan() over limit = %v", err)
	}
}

func TestSendRemindersOnce(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService()
	svc.Plan(ctx, 1, strings.Fields("nay 10:20 thi Toán"))
	svc.Plan(ctx, 1, strings.Fields("nay 12:00 Lý"))

	fail := true
	var sent []string
	send := func(userID int64, text string) error {
		if fail {
			return errors.New("blocked")
		}
		sent = append(sent, text)
		return nil
	}

	if n, err := svc.SendReminders(ctx, send); err != nil || n != 0 {
		t.Fatalf("SendReminders() with failing send = %d, %v", n, err)
	}
	fail = false
	if n, err := svc.SendReminders(ctx, send); err != nil || n != 1 {
		t.Fatalf("SendReminders() = %d, %v", n, err)
	}
	if !strings.Contains(sent[0], "20 phút") || !strings.Contains(sent[0], "Toán") {
		t.Errorf("reminder text = %q", sent[0])
	}
	if n, _ := svc.SendReminders(ctx, send); n != 0 {
		t.Errorf("repeated reminder sent %d", n)
	}

	*clock = clock.Add(90 * time.Minute)
	if n, _ := svc.SendReminders(ctx, send); n != 1 || !strings.Contains(sent[1], "Lý") {
		t.Errorf("second reminder: %d, %v", n, sent)
	}
}

func TestParseType(t *testing.T) {
	for word, want := range map[string]EventType{"BaiTap": TypeHomework, "thi": TypeExam, "học": TypeStudy} {
		if got, ok := ParseType(word); !ok || got != want {
			t.Errorf("ParseType(%q) = %q, %v", word, got, ok)
		}
	}
	if _, ok := ParseType("Toán"); ok {
		t.Error("ParseType(Toán) must not match")
	}
}
