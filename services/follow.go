package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/yatube/events"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// FollowGraph stores "user follows author" edges.
type FollowGraph struct {
	db     *gorm.DB
	events events.Publisher
	now    func() time.Time
}

func NewFollowGraph(db *gorm.DB, pub events.Publisher) *FollowGraph {
	return &FollowGraph{db: db, events: pub, now: time.Now}
}

// Follow creates the edge if it is absent. Following twice is not an error
// and never duplicates the edge; following yourself is ErrInvalidOperation.
func (g *FollowGraph) Follow(ctx context.Context, user, author *models.User) error {
	if user == nil {
		return ErrUnauthorized
	}
	if author == nil {
		return fmt.Errorf("author: %w", ErrNotFound)
	}
	if user.ID == author.ID {
		return fmt.Errorf("%w: cannot follow yourself", ErrInvalidOperation)
	}

	edge := models.Follow{UserID: user.ID, AuthorID: author.ID, CreatedAt: g.now()}
	res := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge)
	if res.Error != nil {
		return fmt.Errorf("create follow: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		publish(ctx, g.events, events.Event{Type: events.Followed, ActorID: user.ID, TargetID: author.ID, At: edge.CreatedAt})
	}
	return nil
}

// Unfollow removes the edge; a missing edge is a no-op.
func (g *FollowGraph) Unfollow(ctx context.Context, user, author *models.User) error {
	if user == nil {
		return ErrUnauthorized
	}
	if author == nil {
		return fmt.Errorf("author: %w", ErrNotFound)
	}
	res := g.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", user.ID, author.ID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("delete follow: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		publish(ctx, g.events, events.Event{Type: events.Unfollowed, ActorID: user.ID, TargetID: author.ID, At: g.now()})
	}
	return nil
}

// IsFollowing reports whether the edge exists. An anonymous user follows nobody.
func (g *FollowGraph) IsFollowing(ctx context.Context, user, author *models.User) (bool, error) {
	if user == nil || author == nil {
		return false, nil
	}
	var n int64
	err := g.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", user.ID, author.ID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return n > 0, nil
}

// FollowedAuthors lists the authors user follows, ordered by username.
func (g *FollowGraph) FollowedAuthors(ctx context.Context, user *models.User) ([]models.User, error) {
	authors := []models.User{}
	if user == nil {
		return authors, nil
	}
	err := g.db.WithContext(ctx).
		Where("id IN (?)", g.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", user.ID)).
		Order("username ASC").
		Find(&authors).Error
	if err != nil {
		return nil, fmt.Errorf("list followed authors: %w", err)
	}
	return authors, nil
}

// publish sends ev and only logs failures: the write it describes already succeeded.
func publish(ctx context.Context, pub events.Publisher, ev events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		utils.Sugar.Warnf("publish %s event failed actor=%d err=%v", ev.Type, ev.ActorID, err)
	}
}
