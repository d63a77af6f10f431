package parent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/members"
	"serotonyl.ru/lumi-bot/internal/features/profile"
	"serotonyl.ru/lumi-bot/internal/features/report"
	"serotonyl.ru/lumi-bot/internal/features/usage"
)

const (
	parentID  int64 = 100
	studentID int64 = 1
	password        = "bí mật"
)

var fastHash = HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

type nopSummarizer struct{}

func (nopSummarizer) RequestParentSummary(context.Context, report.Stats) (string, error) {
	return "ok", nil
}

type fixture struct {
	now time.Time
	svc *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hash, err := HashPassword(password, fastHash)
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	access := Access{ParentIDs: []int64{parentID}, PasswordHash: hash}
	profiles := profile.NewService(profile.NewMemoryStore(), profile.Seed{DailyLimit: 120}, clock, time.UTC)
	membersSvc := members.NewService(members.NewMemoryStore(), func(id int64) bool { return id == parentID })
	membersSvc.Register(context.Background(), studentID, members.Info{FirstName: "An"})
	membersSvc.Register(context.Background(), parentID, members.Info{FirstName: "Mẹ"})

	f.svc = NewService(NewMemoryStore(), access, clock, membersSvc, profiles,
		usage.NewService(profiles, 1, 15), report.NewService(profiles, nopSummarizer{}, time.Second))
	return f
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret", fastHash)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Errorf("hash = %s", hash)
	}
	if !VerifyPassword("secret", hash) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("Secret", hash) {
		t.Error("wrong password accepted")
	}
	if VerifyPassword("secret", "not-a-hash") {
		t.Error("malformed hash accepted")
	}
}

func TestLoginLockout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.svc.Login(ctx, studentID, password); !errors.Is(err, common.ErrNotParent) {
		t.Fatalf("Login(student) = %v", err)
	}
	for i := 0; i < MaxFailedAttempts; i++ {
		if err := f.svc.Login(ctx, parentID, "sai"); !errors.Is(err, common.ErrWrongPassword) {
			t.Fatalf("attempt %d = %v", i, err)
		}
	}
	if err := f.svc.Login(ctx, parentID, password); !errors.Is(err, common.ErrTooManyAttempts) {
		t.Fatalf("Login after lockout = %v", err)
	}

	f.now = f.now.Add(AttemptWindow + time.Second)
	if err := f.svc.Login(ctx, parentID, password); err != nil {
		t.Fatalf("Login after window = %v", err)
	}
	if err := f.svc.RequireSession(ctx, parentID); err != nil {
		t.Fatalf("RequireSession() = %v", err)
	}
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.svc.RequireSession(ctx, parentID); !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("RequireSession() before login = %v", err)
	}
	if err := f.svc.Login(ctx, parentID, password); err != nil {
		t.Fatal(err)
	}
	f.now = f.now.Add(SessionTTL - time.Minute)
	if err := f.svc.RequireSession(ctx, parentID); err != nil {
		t.Fatalf("session expired early: %v", err)
	}
	f.now = f.now.Add(time.Minute)
	if err := f.svc.RequireSession(ctx, parentID); !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("RequireSession() after 24h = %v", err)
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc.Login(ctx, parentID, password)
	f.svc.SetDialog(parentID, Dialog{Step: StepMenu, StudentID: studentID})

	if err := f.svc.Logout(ctx, parentID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.RequireSession(ctx, parentID); !errors.Is(err, common.ErrSessionExpired) {
		t.Errorf("RequireSession() after logout = %v", err)
	}
	if f.svc.Dialog(parentID) != nil {
		t.Error("dialog survived logout")
	}
}

func TestDialogExpires(t *testing.T) {
	f := newFixture(t)
	f.svc.SetDialog(parentID, Dialog{Step: StepSelectStudent})
	f.now = f.now.Add(DialogTTL)
	if d := f.svc.Dialog(parentID); d == nil || d.Step != StepSelectStudent {
		t.Fatalf("Dialog() at TTL = %+v", d)
	}
	f.now = f.now.Add(time.Second)
	if d := f.svc.Dialog(parentID); d != nil {
		t.Fatalf("Dialog() after TTL = %+v", d)
	}
}

func TestParentActionsRequireSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.SetDailyLimit(ctx, parentID, studentID, 60); !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("SetDailyLimit() without session = %v", err)
	}
	f.svc.Login(ctx, parentID, password)

	p, err := f.svc.SetDailyLimit(ctx, parentID, studentID, 60)
	if err != nil || p.DailyLimit != 60 {
		t.Fatalf("SetDailyLimit() = %d, %v", p.DailyLimit, err)
	}
	p, err = f.svc.SetAppLimit(ctx, parentID, studentID, p.Apps[0].ID, 15)
	if err != nil || p.Apps[0].Limit != 15 {
		t.Fatalf("SetAppLimit() = %+v, %v", p.Apps[0], err)
	}
	if _, err := f.svc.SetAppLimit(ctx, parentID, studentID, "nope", 15); !errors.Is(err, common.ErrInvalidAppReference) {
		t.Errorf("SetAppLimit(unknown) = %v", err)
	}
	if _, err := f.svc.Student(ctx, parentID, 999); !errors.Is(err, common.ErrUserNotFound) {
		t.Errorf("Student(unknown) = %v", err)
	}

	students, err := f.svc.Students(ctx, parentID)
	if err != nil || len(students) != 1 || students[0].UserID != studentID {
		t.Errorf("Students() = %+v, %v", students, err)
	}
	if _, text, err := f.svc.Summary(ctx, parentID, studentID); err != nil || text != "ok" {
		t.Errorf("Summary() = %q, %v", text, err)
	}
	if data, err := f.svc.Export(ctx, parentID, studentID); err != nil || len(data) == 0 {
		t.Errorf("Export() = %d bytes, %v", len(data), err)
	}
}

func TestSendDigests(t *testing.T) {
	f := newFixture(t)
	got := map[int64]string{}
	n, err := f.svc.SendDigests(context.Background(), func(userID int64, text string) error {
		got[userID] = text
		return nil
	})
	if err != nil || n != 1 {
		t.Fatalf("SendDigests() = %d, %v", n, err)
	}
	if !strings.Contains(got[parentID], "🌅 An") {
		t.Errorf("digest = %q", got[parentID])
	}
}
