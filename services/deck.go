package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"

	"github.com/vocadeck/vocadeck-api/apperrors"
	"github.com/vocadeck/vocadeck-api/database"
	"github.com/vocadeck/vocadeck-api/models"
)

// recentWindow is the look-back period for the recentCards statistic.
const recentWindow = 7 * 24 * time.Hour

var deckSortColumns = map[string]string{
	"name":      "name",
	"cardCount": "card_count",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// DeckService manages decks. Every lookup filters by the owning user id, so
// a deck that exists but belongs to someone else is indistinguishable from
// one that does not exist.
type DeckService struct {
	gw *database.Gateway
}

// NewDeckService constructs DeckService.
func NewDeckService(gw *database.Gateway) *DeckService {
	return &DeckService{gw: gw}
}

// UpdateDeckParams carries optional deck changes; nil fields are left
// untouched.
type UpdateDeckParams struct {
	Name        *string
	Description *string
}

// Create makes a new deck for the user.
func (s *DeckService) Create(ctx context.Context, userID uint, name, description string) (*models.Deck, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return nil, fmt.Errorf("%w: deck name is required", apperrors.ErrValidation)
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	deck := &models.Deck{PublicID: publicID, Name: name, Description: description, UserID: userID}
	err = s.gw.Run(ctx, func(db *gorm.DB) error {
		return db.Create(deck).Error
	})
	if err != nil {
		return nil, err
	}
	return deck, nil
}

// Get fetches one deck owned by the user.
func (s *DeckService) Get(ctx context.Context, userID uint, publicID string) (*models.Deck, error) {
	var deck models.Deck
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		return db.Where("public_id = ? AND user_id = ?", publicID, userID).First(&deck).Error
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &deck, nil
}

// List returns one page of the user's decks. Search matches name or
// description, case-insensitive.
func (s *DeckService) List(ctx context.Context, userID uint, params ListParams) (*Paginated[models.Deck], error) {
	params.normalize(deckSortColumns, "created_at")

	var decks []models.Deck
	var total int64
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		query := db.Model(&models.Deck{}).Where("user_id = ?", userID)
		if pattern := params.searchPattern(); pattern != "" {
			query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern)
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return query.Order(params.order()).Limit(params.Limit).Offset(params.offset()).Find(&decks).Error
	})
	if err != nil {
		return nil, err
	}
	return newPaginated(decks, params, total), nil
}

// Update applies changes to a deck owned by the user.
func (s *DeckService) Update(ctx context.Context, userID uint, publicID string, params UpdateDeckParams) (*models.Deck, error) {
	var deck models.Deck
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		if err := db.Where("public_id = ? AND user_id = ?", publicID, userID).First(&deck).Error; err != nil {
			return err
		}
		if params.Name != nil {
			name := strings.TrimSpace(*params.Name)
			if name == "" {
				return fmt.Errorf("%w: deck name must not be empty", apperrors.ErrValidation)
			}
			deck.Name = name
		}
		if params.Description != nil {
			deck.Description = strings.TrimSpace(*params.Description)
		}
		return db.Save(&deck).Error
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &deck, nil
}

// Delete removes a deck and all of its cards.
func (s *DeckService) Delete(ctx context.Context, userID uint, publicID string) error {
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		var deck models.Deck
		if err := db.Where("public_id = ? AND user_id = ?", publicID, userID).First(&deck).Error; err != nil {
			return err
		}
		if err := db.Where("deck_id = ?", deck.ID).Delete(&models.Card{}).Error; err != nil {
			return err
		}
		return db.Delete(&deck).Error
	})
	return translateNotFound(err)
}

// Stats computes deck statistics from the live card set, not from the
// cached CardCount.
func (s *DeckService) Stats(ctx context.Context, userID uint, publicID string) (*models.DeckStats, error) {
	stats := &models.DeckStats{}
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		var deck models.Deck
		if err := db.Where("public_id = ? AND user_id = ?", publicID, userID).First(&deck).Error; err != nil {
			return err
		}

		cards := db.Model(&models.Card{}).Where("deck_id = ?", deck.ID)
		if err := cards.Count(&stats.TotalCards).Error; err != nil {
			return err
		}
		memorized := db.Model(&models.Card{}).Where("deck_id = ? AND memorized = ?", deck.ID, true)
		if err := memorized.Count(&stats.MemorizedCards).Error; err != nil {
			return err
		}
		cutoff := time.Now().Add(-recentWindow)
		recent := db.Model(&models.Card{}).Where("deck_id = ? AND created_at >= ?", deck.ID, cutoff)
		return recent.Count(&stats.RecentCards).Error
	})
	if err != nil {
		return nil, translateNotFound(err)
	}

	stats.UnmemorizedCards = stats.TotalCards - stats.MemorizedCards
	if stats.TotalCards > 0 {
		stats.ProgressPercentage = int(math.Round(float64(stats.MemorizedCards) / float64(stats.TotalCards) * 100))
	}
	return stats, nil
}
