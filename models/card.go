package models

import "time"

// Card represents a single front-text/back-text vocabulary pair.
type Card struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PublicID  string    `gorm:"size:100;uniqueIndex" json:"id"`
	FrontText string    `gorm:"not null;size:1000" json:"frontText"`
	BackText  string    `gorm:"not null;size:1000" json:"backText"`
	Memorized bool      `gorm:"not null;default:false" json:"memorized"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	DeckID uint `gorm:"not null;index" json:"-"`
	Deck   Deck `gorm:"foreignKey:DeckID;constraint:OnDelete:CASCADE" json:"-"`
}
