package models

// Group is a themed community posts may be attached to.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"size:100;not null;uniqueIndex" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
}

func (g Group) String() string { return g.Title }
