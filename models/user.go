package models

import "time"

// User represents a registered learner. Email is stored lowercase and the
// password column only ever holds a bcrypt hash.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Email     string    `gorm:"unique;not null;size:191" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Name      string    `gorm:"size:100" json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Decks []Deck `gorm:"foreignKey:UserID" json:"-"`
}
