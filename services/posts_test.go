package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cppla/yatube/events"
)

func TestPostService_CreateAndDetail(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	clock := newTickingClock()
	svc := NewPostService(db, pub, clock.Now)
	ctx := context.Background()
	leo := mustUser(t, db, "leo")
	ann := mustUser(t, db, "ann")
	mustGroup(t, db, "cats")

	text := strings.Repeat("a", 20) + strings.Repeat("b", 20)
	post, err := svc.Create(ctx, leo, PostInput{Text: "  <b>" + text + "</b> ", GroupSlug: "cats"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if post.Text != text {
		t.Fatalf("text not sanitized: %q", post.Text)
	}
	if post.Group == nil || post.Group.Slug != "cats" || post.Author.Username != "leo" {
		t.Fatalf("relations not loaded: %+v", post)
	}
	if pub.count(events.PostCreated) != 1 {
		t.Fatal("expected post created event")
	}

	if _, err := svc.AddComment(ctx, ann, post.ID, CommentInput{Text: "first"}); err != nil {
		t.Fatalf("comment 1: %v", err)
	}
	if _, err := svc.AddComment(ctx, leo, post.ID, CommentInput{Text: "second"}); err != nil {
		t.Fatalf("comment 2: %v", err)
	}

	detail, err := svc.Detail(ctx, post.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Title != text[:30] {
		t.Errorf("title: got %q", detail.Title)
	}
	if detail.PostsCount != 1 {
		t.Errorf("posts count: got %d", detail.PostsCount)
	}
	if len(detail.Comments) != 2 || detail.Comments[0].Text != "first" || detail.Comments[1].Text != "second" {
		t.Fatalf("comments: %+v", detail.Comments)
	}
	if detail.Comments[0].Author.Username != "ann" {
		t.Errorf("comment author not loaded: %+v", detail.Comments[0].Author)
	}
	if post.String() != text[:15] {
		t.Errorf("String(): got %q", post.String())
	}
}

func TestPostService_CreateErrors(t *testing.T) {
	db := newTestDB(t)
	svc := NewPostService(db, nil, nil)
	ctx := context.Background()
	leo := mustUser(t, db, "leo")

	if _, err := svc.Create(ctx, nil, PostInput{Text: "hi"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous: got %v", err)
	}
	if _, err := svc.Create(ctx, leo, PostInput{Text: "   "}); !errors.Is(err, ErrValidation) {
		t.Errorf("blank text: got %v", err)
	}
	if _, err := svc.Create(ctx, leo, PostInput{Text: "<i></i>"}); !errors.Is(err, ErrValidation) {
		t.Errorf("markup only: got %v", err)
	}
	if _, err := svc.Create(ctx, leo, PostInput{Text: "hi", GroupSlug: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown group: got %v", err)
	}
}

func TestPostService_Edit(t *testing.T) {
	db := newTestDB(t)
	clock := newTickingClock()
	svc := NewPostService(db, nil, clock.Now)
	ctx := context.Background()
	leo := mustUser(t, db, "leo")
	ann := mustUser(t, db, "ann")
	mustGroup(t, db, "cats")

	post, err := svc.Create(ctx, leo, PostInput{Text: "draft", GroupSlug: "cats", Image: "posts/a.png"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Edit(ctx, ann, post.ID, PostInput{Text: "hijack"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-author edit: got %v", err)
	}
	if _, err := svc.Edit(ctx, nil, post.ID, PostInput{Text: "x"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous edit: got %v", err)
	}
	if _, err := svc.Edit(ctx, leo, post.ID+100, PostInput{Text: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing post: got %v", err)
	}

	edited, err := svc.Edit(ctx, leo, post.ID, PostInput{Text: "final"})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Text != "final" {
		t.Errorf("text: got %q", edited.Text)
	}
	if edited.GroupID != nil {
		t.Errorf("group should be cleared, got %v", *edited.GroupID)
	}
	if edited.Image != "posts/a.png" {
		t.Errorf("image should be kept, got %q", edited.Image)
	}
	if !edited.CreatedAt.Equal(post.CreatedAt) {
		t.Errorf("created_at changed from %v to %v", post.CreatedAt, edited.CreatedAt)
	}
}

func TestPostService_AddCommentErrors(t *testing.T) {
	db := newTestDB(t)
	svc := NewPostService(db, nil, nil)
	ctx := context.Background()
	leo := mustUser(t, db, "leo")

	if _, err := svc.AddComment(ctx, leo, 999, CommentInput{Text: "hi"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown post: got %v", err)
	}
	post, err := svc.Create(ctx, leo, PostInput{Text: "post"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddComment(ctx, nil, post.ID, CommentInput{Text: "hi"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous: got %v", err)
	}
	if _, err := svc.AddComment(ctx, leo, post.ID, CommentInput{Text: " "}); !errors.Is(err, ErrValidation) {
		t.Errorf("blank: got %v", err)
	}
}
