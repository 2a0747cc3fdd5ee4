package core

import (
	"slices"

	"github.com/seckatie/marktube/internal/core/db"
)

// ListState is the manager's view of one video's bookmarks, split into the
// last confirmed list and an optional speculative list that reflects edits
// still waiting for an answer. Confirm always replaces both: the
// authoritative list wins over any speculation.
//
// ListState is not safe for concurrent use.
type ListState struct {
	confirmed   []db.Bookmark
	speculative []db.Bookmark
	pending     int
}

// NewListState starts from an authoritative list.
func NewListState(list []db.Bookmark) *ListState {
	s := &ListState{}
	s.Confirm(list)
	return s
}

// SpeculateDelete hides every bookmark at t until the next Confirm.
func (s *ListState) SpeculateDelete(t float64) []db.Bookmark {
	base := s.confirmed
	if s.pending > 0 {
		base = s.speculative
	}
	s.speculative = db.DeleteBookmarksAt(base, t)
	s.pending++
	return s.View()
}

// Confirm installs the authoritative list and drops all speculation.
func (s *ListState) Confirm(list []db.Bookmark) {
	s.confirmed = slices.Clone(list)
	if s.confirmed == nil {
		s.confirmed = []db.Bookmark{}
	}
	db.SortBookmarks(s.confirmed)
	s.speculative = nil
	s.pending = 0
}

// Pending reports whether unconfirmed edits are applied to the view.
func (s *ListState) Pending() bool {
	return s.pending > 0
}

// View returns the list to render.
func (s *ListState) View() []db.Bookmark {
	if s.pending > 0 {
		return slices.Clone(s.speculative)
	}
	return slices.Clone(s.confirmed)
}

// Confirmed returns the last authoritative list.
func (s *ListState) Confirmed() []db.Bookmark {
	return slices.Clone(s.confirmed)
}
