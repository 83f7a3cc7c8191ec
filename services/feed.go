package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// ScopeKind names which posts a feed contains.
type ScopeKind int

const (
	ScopeKindAll ScopeKind = iota
	ScopeKindGroup
	ScopeKindAuthor
	ScopeKindSubscriptions
)

// Scope selects the posts of one feed.
type Scope struct {
	Kind     ScopeKind
	Slug     string
	Username string
	Viewer   *models.User
}

func ScopeAll() Scope { return Scope{Kind: ScopeKindAll} }

func ScopeGroup(slug string) Scope { return Scope{Kind: ScopeKindGroup, Slug: slug} }

func ScopeAuthor(username string) Scope { return Scope{Kind: ScopeKindAuthor, Username: username} }

func ScopeSubscriptions(viewer *models.User) Scope {
	return Scope{Kind: ScopeKindSubscriptions, Viewer: viewer}
}

// Feed is a selected, not yet materialized post sequence plus the entities
// the scope resolved to.
type Feed struct {
	Posts  utils.Sequence[models.Post]
	Group  *models.Group
	Author *models.User
}

// FeedSelector turns scopes into ordered post sequences.
type FeedSelector struct {
	db *gorm.DB
}

func NewFeedSelector(db *gorm.DB) *FeedSelector {
	return &FeedSelector{db: db}
}

// Select resolves scope. Unknown group slugs and usernames yield ErrNotFound;
// a subscriptions scope without a viewer yields ErrUnauthorized.
func (s *FeedSelector) Select(ctx context.Context, scope Scope) (*Feed, error) {
	switch scope.Kind {
	case ScopeKindAll:
		return &Feed{Posts: s.sequence(func(q *gorm.DB) *gorm.DB { return q })}, nil

	case ScopeKindGroup:
		var group models.Group
		if err := s.db.WithContext(ctx).Where("slug = ?", scope.Slug).First(&group).Error; err != nil {
			return nil, notFound(err, "group %q", scope.Slug)
		}
		return &Feed{
			Group: &group,
			Posts: s.sequence(func(q *gorm.DB) *gorm.DB { return q.Where("group_id = ?", group.ID) }),
		}, nil

	case ScopeKindAuthor:
		var author models.User
		if err := s.db.WithContext(ctx).Where("username = ?", scope.Username).First(&author).Error; err != nil {
			return nil, notFound(err, "user %q", scope.Username)
		}
		return &Feed{
			Author: &author,
			Posts:  s.sequence(func(q *gorm.DB) *gorm.DB { return q.Where("author_id = ?", author.ID) }),
		}, nil

	case ScopeKindSubscriptions:
		if scope.Viewer == nil {
			return nil, ErrUnauthorized
		}
		viewerID := scope.Viewer.ID
		return &Feed{
			Posts: s.sequence(func(q *gorm.DB) *gorm.DB {
				followed := s.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", viewerID)
				return q.Where("author_id IN (?)", followed)
			}),
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown scope %d", ErrInvalidOperation, scope.Kind)
}

func (s *FeedSelector) sequence(filter func(*gorm.DB) *gorm.DB) *postSequence {
	return &postSequence{db: s.db, filter: filter}
}

// postSequence is lazy: nothing is queried until Len or Slice, and every call
// starts from a fresh statement so the sequence can be read repeatedly.
type postSequence struct {
	db     *gorm.DB
	filter func(*gorm.DB) *gorm.DB
}

func (p *postSequence) base(ctx context.Context) *gorm.DB {
	return p.filter(p.db.WithContext(ctx).Model(&models.Post{}))
}

func (p *postSequence) Len(ctx context.Context) (int, error) {
	var n int64
	if err := p.base(ctx).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return int(n), nil
}

func (p *postSequence) Slice(ctx context.Context, offset, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	err := p.base(ctx).
		Preload("Author").
		Preload("Group").
		Order("created_at DESC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// notFound maps gorm's missing-record error onto ErrNotFound.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", fmt.Sprintf(format, args...), err)
}
