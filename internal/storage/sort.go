package storage

import (
	"cmp"
	"slices"

	"github.com/mcoot/plakoto/internal/model"
)

// SortNewestFirst orders matches by creation time, newest first, with the
// ID as a tiebreaker so listings are stable across backends.
func SortNewestFirst(matches []*model.Match) {
	slices.SortFunc(matches, func(a, b *model.Match) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortRecentlyUpdated orders matches by last update, most recent first
func SortRecentlyUpdated(matches []*model.Match) {
	slices.SortFunc(matches, func(a, b *model.Match) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
