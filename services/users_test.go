package services

import (
	"context"
	"errors"
	"testing"
)

func TestUserService_Register(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Username: "leo_t-1", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 || user.PasswordHash == "" || user.PasswordHash == "secret1" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := svc.Register(ctx, Credentials{Username: "leo_t-1", Password: "secret2"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate: got %v", err)
	}

	invalid := []Credentials{
		{Username: "ab", Password: "secret1"},
		{Username: "has space", Password: "secret1"},
		{Username: "good", Password: "short"},
	}
	for _, c := range invalid {
		if _, err := svc.Register(ctx, c); !errors.Is(err, ErrValidation) {
			t.Errorf("register %+v: got %v, want ErrValidation", c, err)
		}
	}
}

func TestUserService_Authenticate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "leo", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	user, err := svc.Authenticate(ctx, Credentials{Username: "leo", Password: "secret1"})
	if err != nil || user.Username != "leo" {
		t.Fatalf("login: %v %+v", err, user)
	}
	if _, err := svc.Authenticate(ctx, Credentials{Username: "leo", Password: "wrong!"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := svc.Authenticate(ctx, Credentials{Username: "ghost", Password: "secret1"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("unknown user: got %v", err)
	}

	byID, err := svc.ByID(ctx, user.ID)
	if err != nil || byID.Username != "leo" {
		t.Fatalf("by id: %v %+v", err, byID)
	}
	if _, err := svc.ByUsername(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("by username: got %v", err)
	}
}

func TestGroupService(t *testing.T) {
	db := newTestDB(t)
	svc := NewGroupService(db)
	ctx := context.Background()

	if _, err := svc.Create(ctx, GroupInput{Title: "Dogs", Slug: "dogs"}); err != nil {
		t.Fatalf("create dogs: %v", err)
	}
	if _, err := svc.Create(ctx, GroupInput{Title: "Cats", Slug: "cats", Description: "meow"}); err != nil {
		t.Fatalf("create cats: %v", err)
	}
	if _, err := svc.Create(ctx, GroupInput{Title: "Cats again", Slug: "cats"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate slug: got %v", err)
	}
	if _, err := svc.Create(ctx, GroupInput{Title: "Bad", Slug: "bad slug"}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad slug: got %v", err)
	}

	groups, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(groups) != 2 || groups[0].String() != "Cats" || groups[1].String() != "Dogs" {
		t.Fatalf("unexpected groups: %+v", groups)
	}
	if _, err := svc.BySlug(ctx, "birds"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown slug: got %v", err)
	}
}
