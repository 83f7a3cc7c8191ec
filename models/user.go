package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a blog author. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Posts        []Post    `gorm:"foreignKey:AuthorID" json:"-"`
	Comments     []Comment `gorm:"foreignKey:AuthorID" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := tx.NowFunc()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

func (u User) String() string { return u.Username }
