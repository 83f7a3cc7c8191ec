package models

import "time"

// postPreviewLen is how many characters of text a post prints as.
const postPreviewLen = 15

// Post is an entry written by a user, optionally inside a group. Image is an
// opaque reference to an uploaded file relative to the media root.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Author    User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	GroupID   *uint     `gorm:"index" json:"group_id"`
	Group     *Group    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"group,omitempty"`
	Image     string    `gorm:"size:1024" json:"image"`
	Comments  []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (p Post) String() string {
	return Truncate(p.Text, postPreviewLen)
}

// Truncate returns at most n leading characters of s.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
