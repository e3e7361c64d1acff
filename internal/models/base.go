package models

import "time"

// BaseModel is gorm.Model without soft deletes. Rows are removed for real so
// the unique indexes on users and project roles stay meaningful.
type BaseModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
