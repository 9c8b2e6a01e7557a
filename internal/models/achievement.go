package models

import (
	"time"
)

// Achievement is one catalogue entry with its persisted unlock state.
// IsUnlocked is monotonic: once set it is never reverted by the evaluator.
// Progress and Target keep tracking current standing even after unlock.
type Achievement struct {
	ID         string     `gorm:"primaryKey;size:64" json:"id"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	Detail     string     `gorm:"size:512" json:"detail"`
	Icon       string     `gorm:"size:64" json:"icon"`
	Color      string     `gorm:"size:32" json:"color"`
	IsUnlocked bool       `gorm:"not null;default:false" json:"is_unlocked"`
	Progress   float64    `gorm:"not null" json:"progress"`
	Target     float64    `gorm:"not null" json:"target"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}
