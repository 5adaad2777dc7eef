package services

import (
	"context"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"

	"github.com/vocadeck/vocadeck-api/apperrors"
	"github.com/vocadeck/vocadeck-api/database"
	"github.com/vocadeck/vocadeck-api/models"
)

// defaultStudyLimit caps a study session when the caller does not pick one.
const defaultStudyLimit = 20

var cardSortColumns = map[string]string{
	"frontText": "front_text",
	"backText":  "back_text",
	"memorized": "memorized",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// CardService manages cards. Every operation resolves the ownership chain
// card -> deck -> user first and reports ErrNotFound when the chain does not
// terminate at the requesting user.
type CardService struct {
	gw *database.Gateway
}

// NewCardService constructs CardService.
func NewCardService(gw *database.Gateway) *CardService {
	return &CardService{gw: gw}
}

// UpdateCardParams carries optional card changes; nil fields are left
// untouched.
type UpdateCardParams struct {
	FrontText *string
	BackText  *string
	Memorized *bool
}

func findOwnedDeck(db *gorm.DB, userID uint, deckPublicID string) (*models.Deck, error) {
	var deck models.Deck
	if err := db.Where("public_id = ? AND user_id = ?", deckPublicID, userID).First(&deck).Error; err != nil {
		return nil, err
	}
	return &deck, nil
}

// refreshCardCount recomputes the deck's cached aggregate from the live card
// set. Recomputing instead of incrementing keeps the cache self-healing.
func refreshCardCount(db *gorm.DB, deckID uint) error {
	var count int64
	if err := db.Model(&models.Card{}).Where("deck_id = ?", deckID).Count(&count).Error; err != nil {
		return err
	}
	return db.Model(&models.Deck{}).Where("id = ?", deckID).Update("card_count", count).Error
}

// Create adds a card to a deck owned by the user and re-derives the deck's
// card count in the same operation.
func (s *CardService) Create(ctx context.Context, userID uint, deckPublicID, frontText, backText string) (*models.Card, error) {
	frontText = strings.TrimSpace(frontText)
	backText = strings.TrimSpace(backText)
	if frontText == "" || backText == "" {
		return nil, fmt.Errorf("%w: front and back text are required", apperrors.ErrValidation)
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	card := &models.Card{PublicID: publicID, FrontText: frontText, BackText: backText}
	err = s.gw.Run(ctx, func(db *gorm.DB) error {
		deck, err := findOwnedDeck(db, userID, deckPublicID)
		if err != nil {
			return err
		}
		card.DeckID = deck.ID
		if err := db.Create(card).Error; err != nil {
			return err
		}
		return refreshCardCount(db, deck.ID)
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return card, nil
}

// Get fetches one card through the ownership chain.
func (s *CardService) Get(ctx context.Context, userID uint, deckPublicID, cardPublicID string) (*models.Card, error) {
	var card models.Card
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		deck, err := findOwnedDeck(db, userID, deckPublicID)
		if err != nil {
			return err
		}
		return db.Where("public_id = ? AND deck_id = ?", cardPublicID, deck.ID).First(&card).Error
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &card, nil
}

// List returns one page of a deck's cards. Search matches front or back
// text, case-insensitive.
func (s *CardService) List(ctx context.Context, userID uint, deckPublicID string, params ListParams) (*Paginated[models.Card], error) {
	params.normalize(cardSortColumns, "created_at")

	var cards []models.Card
	var total int64
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		deck, err := findOwnedDeck(db, userID, deckPublicID)
		if err != nil {
			return err
		}
		query := db.Model(&models.Card{}).Where("deck_id = ?", deck.ID)
		if pattern := params.searchPattern(); pattern != "" {
			query = query.Where(`LOWER(front_text) LIKE ? ESCAPE '\' OR LOWER(back_text) LIKE ? ESCAPE '\'`, pattern, pattern)
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return query.Order(params.order()).Limit(params.Limit).Offset(params.offset()).Find(&cards).Error
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return newPaginated(cards, params, total), nil
}

// Update applies changes to a card through the ownership chain.
func (s *CardService) Update(ctx context.Context, userID uint, deckPublicID, cardPublicID string, params UpdateCardParams) (*models.Card, error) {
	var card models.Card
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		deck, err := findOwnedDeck(db, userID, deckPublicID)
		if err != nil {
			return err
		}
		if err := db.Where("public_id = ? AND deck_id = ?", cardPublicID, deck.ID).First(&card).Error; err != nil {
			return err
		}
		if params.FrontText != nil {
			front := strings.TrimSpace(*params.FrontText)
			if front == "" {
				return fmt.Errorf("%w: front text must not be empty", apperrors.ErrValidation)
			}
			card.FrontText = front
		}
		if params.BackText != nil {
			back := strings.TrimSpace(*params.BackText)
			if back == "" {
				return fmt.Errorf("%w: back text must not be empty", apperrors.ErrValidation)
			}
			card.BackText = back
		}
		if params.Memorized != nil {
			card.Memorized = *params.Memorized
		}
		return db.Save(&card).Error
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &card, nil
}

// Delete removes a card and re-derives the deck's card count in the same
// operation.
func (s *CardService) Delete(ctx context.Context, userID uint, deckPublicID, cardPublicID string) error {
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		deck, err := findOwnedDeck(db, userID, deckPublicID)
		if err != nil {
			return err
		}
		var card models.Card
		if err := db.Where("public_id = ? AND deck_id = ?", cardPublicID, deck.ID).First(&card).Error; err != nil {
			return err
		}
		if err := db.Delete(&card).Error; err != nil {
			return err
		}
		return refreshCardCount(db, deck.ID)
	})
	return translateNotFound(err)
}

// ToggleMemorized flips the memorized flag with a read-then-negate-then-write
// sequence. Concurrent toggles of the same card are last-write-wins.
func (s *CardService) ToggleMemorized(ctx context.Context, userID uint, deckPublicID, cardPublicID string) (*models.Card, error) {
	var card models.Card
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		deck, err := findOwnedDeck(db, userID, deckPublicID)
		if err != nil {
			return err
		}
		if err := db.Where("public_id = ? AND deck_id = ?", cardPublicID, deck.ID).First(&card).Error; err != nil {
			return err
		}
		card.Memorized = !card.Memorized
		return db.Save(&card).Error
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &card, nil
}

// StudySession returns up to limit cards ordered for review: unmemorized
// before memorized, then least-recently-updated first.
func (s *CardService) StudySession(ctx context.Context, userID uint, deckPublicID string, limit int) ([]models.Card, error) {
	if limit < 1 {
		limit = defaultStudyLimit
	}

	var cards []models.Card
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		deck, err := findOwnedDeck(db, userID, deckPublicID)
		if err != nil {
			return err
		}
		return db.Where("deck_id = ?", deck.ID).
			Order("memorized ASC").
			Order("updated_at ASC").
			Limit(limit).
			Find(&cards).Error
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return cards, nil
}

// BulkSetMemorized sets the memorized flag on the given cards, scoped to one
// deck. Ids outside the deck are ignored; the count of rows actually updated
// is returned.
func (s *CardService) BulkSetMemorized(ctx context.Context, userID uint, deckPublicID string, cardIDs []string, memorized bool) (int64, error) {
	if len(cardIDs) == 0 {
		return 0, fmt.Errorf("%w: card ids are required", apperrors.ErrValidation)
	}

	var updated int64
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		deck, err := findOwnedDeck(db, userID, deckPublicID)
		if err != nil {
			return err
		}
		result := db.Model(&models.Card{}).
			Where("deck_id = ? AND public_id IN ?", deck.ID, cardIDs).
			Update("memorized", memorized)
		updated = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, translateNotFound(err)
	}
	return updated, nil
}
