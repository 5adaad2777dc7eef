package models

import "time"

// Deck represents a named collection of vocabulary cards owned by one user.
//
// CardCount is a cached aggregate kept cheap for list views. It is recomputed
// synchronously after every card create/delete targeting the deck rather than
// maintained incrementally, so it self-heals against drift.
type Deck struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	PublicID    string    `gorm:"size:100;uniqueIndex" json:"id"`
	Name        string    `gorm:"not null;size:100" json:"name"`
	Description string    `gorm:"size:1000" json:"description,omitempty"`
	UserID      uint      `gorm:"not null;index" json:"-"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`
	CardCount   int64     `gorm:"not null;default:0" json:"cardCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Cards []Card `gorm:"foreignKey:DeckID;constraint:OnDelete:CASCADE" json:"-"`
}

// DeckStats is computed on demand from the live card set, never from the
// cached CardCount.
type DeckStats struct {
	TotalCards         int64 `json:"totalCards"`
	MemorizedCards     int64 `json:"memorizedCards"`
	UnmemorizedCards   int64 `json:"unmemorizedCards"`
	ProgressPercentage int   `json:"progressPercentage"`
	RecentCards        int64 `json:"recentCards"`
}
