package models

import "time"

// Follow is a directed edge: User subscribes to Author's posts.
// The pair is unique; self-follow is rejected before insert.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"author_id"`
	Author    User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
