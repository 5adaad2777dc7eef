package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocadeck/vocadeck-api/apperrors"
	"github.com/vocadeck/vocadeck-api/models"
)

func TestDeckCreateAndGet(t *testing.T) {
	authSvc, deckSvc, _, _ := newTestServices(t)
	ctx := context.Background()
	user := registerUser(t, authSvc, "owner@example.com")

	deck, err := deckSvc.Create(ctx, user.ID, "  Spanish Verbs  ", "  core 100  ")
	require.NoError(t, err)
	assert.Equal(t, "Spanish Verbs", deck.Name, "name is trimmed")
	assert.Equal(t, "core 100", deck.Description)
	assert.NotEmpty(t, deck.PublicID)

	got, err := deckSvc.Get(ctx, user.ID, deck.PublicID)
	require.NoError(t, err)
	assert.Equal(t, deck.ID, got.ID)

	_, err = deckSvc.Create(ctx, user.ID, "   ", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDeckOwnershipConflation(t *testing.T) {
	authSvc, deckSvc, _, _ := newTestServices(t)
	ctx := context.Background()

	owner := registerUser(t, authSvc, "owner@example.com")
	intruder := registerUser(t, authSvc, "intruder@example.com")
	deck := createDeck(t, deckSvc, owner.ID, "Private Deck")

	// Another user's deck and a missing deck are indistinguishable.
	_, err := deckSvc.Get(ctx, intruder.ID, deck.PublicID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = deckSvc.Get(ctx, intruder.ID, "no-such-deck")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	name := "hijacked"
	_, err = deckSvc.Update(ctx, intruder.ID, deck.PublicID, UpdateDeckParams{Name: &name})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = deckSvc.Delete(ctx, intruder.ID, deck.PublicID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Owner still sees the original.
	got, err := deckSvc.Get(ctx, owner.ID, deck.PublicID)
	require.NoError(t, err)
	assert.Equal(t, "Private Deck", got.Name)
}

func TestDeckUpdate(t *testing.T) {
	authSvc, deckSvc, _, _ := newTestServices(t)
	ctx := context.Background()
	user := registerUser(t, authSvc, "owner@example.com")
	deck := createDeck(t, deckSvc, user.ID, "Old Name")

	name := "New Name"
	desc := "  new description  "
	updated, err := deckSvc.Update(ctx, user.ID, deck.PublicID, UpdateDeckParams{Name: &name, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "new description", updated.Description)

	empty := "   "
	_, err = deckSvc.Update(ctx, user.ID, deck.PublicID, UpdateDeckParams{Name: &empty})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDeckDeleteCascadesCards(t *testing.T) {
	authSvc, deckSvc, cardSvc, gw := newTestServices(t)
	ctx := context.Background()
	user := registerUser(t, authSvc, "owner@example.com")
	deck := createDeck(t, deckSvc, user.ID, "Doomed")

	for i := 0; i < 3; i++ {
		_, err := cardSvc.Create(ctx, user.ID, deck.PublicID, fmt.Sprintf("front %d", i), "back")
		require.NoError(t, err)
	}

	require.NoError(t, deckSvc.Delete(ctx, user.ID, deck.PublicID))

	var orphans int64
	require.NoError(t, gw.DB().Model(&models.Card{}).Where("deck_id = ?", deck.ID).Count(&orphans).Error)
	assert.Zero(t, orphans, "no orphan card may reference a missing deck")
}

func TestDeckListPagination(t *testing.T) {
	authSvc, deckSvc, _, _ := newTestServices(t)
	ctx := context.Background()
	user := registerUser(t, authSvc, "owner@example.com")

	for i := 1; i <= 25; i++ {
		createDeck(t, deckSvc, user.ID, fmt.Sprintf("deck-%02d", i))
	}

	page, err := deckSvc.List(ctx, user.ID, ListParams{Page: 2, Limit: 10, SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 10)
	assert.Equal(t, "deck-11", page.Items[0].Name)
	assert.Equal(t, "deck-20", page.Items[9].Name)

	last, err := deckSvc.List(ctx, user.ID, ListParams{Page: 3, Limit: 10, SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)
}

func TestDeckListSearch(t *testing.T) {
	authSvc, deckSvc, _, _ := newTestServices(t)
	ctx := context.Background()
	user := registerUser(t, authSvc, "owner@example.com")

	_, err := deckSvc.Create(ctx, user.ID, "Spanish Verbs", "")
	require.NoError(t, err)
	_, err = deckSvc.Create(ctx, user.ID, "French Nouns", "everyday spanish loanwords")
	require.NoError(t, err)
	_, err = deckSvc.Create(ctx, user.ID, "German Articles", "")
	require.NoError(t, err)

	// Case-insensitive, OR-combined over name and description.
	page, err := deckSvc.List(ctx, user.ID, ListParams{Search: "SPANISH"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

func TestDeckListSearchEscapesWildcards(t *testing.T) {
	authSvc, deckSvc, _, _ := newTestServices(t)
	ctx := context.Background()
	user := registerUser(t, authSvc, "owner@example.com")

	_, err := deckSvc.Create(ctx, user.ID, "Progress 100%", "")
	require.NoError(t, err)
	_, err = deckSvc.Create(ctx, user.ID, "Progress 100x", "")
	require.NoError(t, err)
	_, err = deckSvc.Create(ctx, user.ID, "catch_all", "")
	require.NoError(t, err)

	// % and _ in the search string match literally, not as wildcards.
	page, err := deckSvc.List(ctx, user.ID, ListParams{Search: "100%"})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "Progress 100%", page.Items[0].Name)

	page, err = deckSvc.List(ctx, user.ID, ListParams{Search: "catch_a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestDeckListDefaults(t *testing.T) {
	authSvc, deckSvc, _, _ := newTestServices(t)
	ctx := context.Background()
	user := registerUser(t, authSvc, "owner@example.com")
	createDeck(t, deckSvc, user.ID, "Only Deck")

	// Garbage sort fields fall back to defaults instead of erroring.
	page, err := deckSvc.List(ctx, user.ID, ListParams{Page: -4, Limit: 0, SortBy: "; DROP TABLE decks", SortOrder: "sideways"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Len(t, page.Items, 1)
}

func TestDeckStats(t *testing.T) {
	authSvc, deckSvc, cardSvc, gw := newTestServices(t)
	ctx := context.Background()
	user := registerUser(t, authSvc, "owner@example.com")

	empty := createDeck(t, deckSvc, user.ID, "Empty")
	stats, err := deckSvc.Stats(ctx, user.ID, empty.PublicID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalCards)
	assert.Equal(t, 0, stats.ProgressPercentage, "empty deck progress is 0, not NaN")

	deck := createDeck(t, deckSvc, user.ID, "Stats Deck")
	var cards []*models.Card
	for i := 0; i < 4; i++ {
		card, err := cardSvc.Create(ctx, user.ID, deck.PublicID, fmt.Sprintf("front %d", i), "back")
		require.NoError(t, err)
		cards = append(cards, card)
	}
	_, err = cardSvc.ToggleMemorized(ctx, user.ID, deck.PublicID, cards[0].PublicID)
	require.NoError(t, err)

	// Two cards created longer than 7 days ago.
	old := time.Now().Add(-8 * 24 * time.Hour)
	backdate(t, gw, cards[2].ID, old, old)
	backdate(t, gw, cards[3].ID, old, old)

	stats, err = deckSvc.Stats(ctx, user.ID, deck.PublicID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalCards)
	assert.Equal(t, int64(1), stats.MemorizedCards)
	assert.Equal(t, int64(3), stats.UnmemorizedCards)
	assert.Equal(t, 25, stats.ProgressPercentage)
	assert.Equal(t, int64(2), stats.RecentCards)

	_, err = deckSvc.Stats(ctx, user.ID, "no-such-deck")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeckStatsUsesLiveCards(t *testing.T) {
	authSvc, deckSvc, cardSvc, gw := newTestServices(t)
	ctx := context.Background()
	user := registerUser(t, authSvc, "owner@example.com")
	deck := createDeck(t, deckSvc, user.ID, "Drifted")

	_, err := cardSvc.Create(ctx, user.ID, deck.PublicID, "front", "back")
	require.NoError(t, err)

	// Corrupt the cached aggregate; stats must not read it.
	require.NoError(t, gw.DB().Model(&models.Deck{}).Where("id = ?", deck.ID).Update("card_count", 99).Error)

	stats, err := deckSvc.Stats(ctx, user.ID, deck.PublicID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalCards)
}
