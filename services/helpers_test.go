package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/events"
	"github.com/cppla/yatube/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.Open(sqlite.Open(":memory:"), "silent")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	// a second connection would see a different in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// tickingClock returns a strictly increasing time, one second per call.
type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(typ string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func mustUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "x"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func mustGroup(t *testing.T, db *gorm.DB, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: "Group " + slug, Slug: slug}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("create group %s: %v", slug, err)
	}
	return g
}

func mustPost(t *testing.T, db *gorm.DB, author *models.User, group *models.Group, text string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID, CreatedAt: at}
	if group != nil {
		p.GroupID = &group.ID
	}
	if err := db.Omit("Author", "Group").Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}
