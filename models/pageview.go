package models

import "time"

// PageView counts successful reads of one feed or post path on one day.
type PageView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_pv_date_path" json:"date"`
	Path      string    `gorm:"size:255;not null;index;uniqueIndex:idx_pv_date_path" json:"path"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
