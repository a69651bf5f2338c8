package models

import "time"

// Account is a login credential row. It is the only gorm-managed model;
// everything else lives in the in-memory state store. UserID links the
// account to its directory User.
type Account struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"size:36;uniqueIndex;not null" json:"user_id"`
	Name         string    `gorm:"size:120;not null" json:"name"`
	Email        string    `gorm:"size:190;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:20;not null;default:doctor" json:"role"`
	Title        string    `gorm:"size:120" json:"title"`
	Phone        string    `gorm:"size:32" json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
