// Package services contains the business logic for auth, decks, and cards.
// Services return plain data structures and sentinel errors; HTTP concerns
// live entirely in the handlers.
package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/vocadeck/vocadeck-api/apperrors"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// ListParams is the recognized option set for list operations.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
}

// normalize applies defaults and clamps the sort field to the given
// whitelist of json-name -> column mappings.
func (p *ListParams) normalize(sortable map[string]string, defaultColumn string) {
	if p.Page < 1 {
		p.Page = defaultPage
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if col, ok := sortable[p.SortBy]; ok {
		p.SortBy = col
	} else {
		p.SortBy = defaultColumn
	}
	if strings.EqualFold(p.SortOrder, "asc") {
		p.SortOrder = "ASC"
	} else {
		p.SortOrder = "DESC"
	}
}

func (p ListParams) offset() int {
	return (p.Page - 1) * p.Limit
}

func (p ListParams) order() string {
	return p.SortBy + " " + p.SortOrder
}

// likeEscaper neutralizes LIKE metacharacters so a search for "100%"
// matches the literal text. Queries using the pattern must carry ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchPattern returns the LIKE pattern for case-insensitive substring
// matching, or "" when no search was requested.
func (p ListParams) searchPattern() string {
	s := strings.TrimSpace(p.Search)
	if s == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// Paginated carries one page of results plus the derived page count.
type Paginated[T any] struct {
	Items []T   `json:"items"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func newPaginated[T any](items []T, p ListParams, total int64) *Paginated[T] {
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return &Paginated[T]{Items: items, Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// translateNotFound maps GORM's record-not-found onto the caller-safe
// sentinel so "absent" and "owned by someone else" are indistinguishable.
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}

// translateConflict maps a unique-index violation onto ErrConflict. This
// catches the race where a duplicate slips past a service-level pre-check
// and is rejected by the database instead.
func translateConflict(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrConflict
	}
	return err
}
