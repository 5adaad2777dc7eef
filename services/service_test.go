package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vocadeck/vocadeck-api/auth"
	"github.com/vocadeck/vocadeck-api/database"
	"github.com/vocadeck/vocadeck-api/models"
)

var dbSeq atomic.Int64

func newTestGateway(t *testing.T) *database.Gateway {
	t.Helper()
	dsn := fmt.Sprintf("file:services%d?mode=memory&cache=shared", dbSeq.Add(1))
	g, err := database.OpenWithDialector(func() gorm.Dialector { return sqlite.Open(dsn) }, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, g.Warmup(context.Background()))
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func newTestServices(t *testing.T) (*AuthService, *DeckService, *CardService, *database.Gateway) {
	t.Helper()
	gw := newTestGateway(t)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	// MinCost keeps the bcrypt-heavy tests fast.
	return NewAuthService(gw, tokens, 4), NewDeckService(gw), NewCardService(gw), gw
}

func registerUser(t *testing.T, authSvc *AuthService, email string) *models.User {
	t.Helper()
	user, _, err := authSvc.Register(context.Background(), email, "password123", "Test User")
	require.NoError(t, err)
	return user
}

func createDeck(t *testing.T, deckSvc *DeckService, userID uint, name string) *models.Deck {
	t.Helper()
	deck, err := deckSvc.Create(context.Background(), userID, name, "")
	require.NoError(t, err)
	return deck
}

// backdate rewrites a card's timestamps directly; UpdateColumn bypasses
// GORM's automatic updated_at tracking.
func backdate(t *testing.T, gw *database.Gateway, cardID uint, created, updated time.Time) {
	t.Helper()
	err := gw.DB().Model(&models.Card{}).Where("id = ?", cardID).
		UpdateColumns(map[string]any{"created_at": created, "updated_at": updated}).Error
	require.NoError(t, err)
}
