package members

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterAndStudents(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store, func(id int64) bool { return id == 100 })

	for _, r := range []struct {
		id   int64
		info Info
	}{
		{2, Info{FirstName: "Minh"}},
		{1, Info{FirstName: "An", Username: "an"}},
		{100, Info{FirstName: "Bố"}},
	} {
		if err := svc.Register(ctx, r.id, r.info); err != nil {
			t.Fatalf("Register(%d) = %v", r.id, err)
		}
	}

	students, err := svc.Students(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(students) != 2 || students[0].UserID != 1 || students[1].UserID != 2 {
		t.Fatalf("Students() = %+v", students)
	}

	first, _ := svc.Get(ctx, 2)
	if err := svc.Register(ctx, 2, Info{FirstName: "Minh", LastName: "Trần"}); err != nil {
		t.Fatal(err)
	}
	m, _ := svc.Get(ctx, 2)
	if m.DisplayName() != "Minh Trần" || !m.JoinedAt.Equal(first.JoinedAt) {
		t.Errorf("after update: %+v", m)
	}
}

func TestGetUnknown(t *testing.T) {
	svc := NewService(NewMemoryStore(), func(int64) bool { return false })
	if _, err := svc.Get(context.Background(), 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() = %v", err)
	}
	if got := svc.DisplayName(context.Background(), 7); got != "#7" {
		t.Errorf("DisplayName() = %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		m    Member
		want string
	}{
		{Member{FirstName: "An", LastName: "Lê", Username: "anle"}, "An Lê"},
		{Member{Username: "anle"}, "@anle"},
		{Member{UserID: 42}, "#42"},
	}
	for _, tt := range tests {
		if got := tt.m.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", tt.m, got, tt.want)
		}
	}
}
