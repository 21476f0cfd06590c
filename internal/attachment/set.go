// Package attachment manages the documents attached to a request with a
// single "selected" slot.
package attachment

import (
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("attachment is not in the set")

// Item is one attached document.
type Item struct {
	ID             uuid.UUID
	FileName       string
	MimeType       string
	StorageRef     string
	DeclaredAmount decimal.Decimal
	Selected       bool
	Position       int // insertion order
}

// Set holds 0..n attachments of one request. Invariant: at most one item has
// Selected = true at any observable instant.
type Set struct {
	items   []Item
	nextPos int
}

// NewSet rebuilds a set from persisted items; insertion order follows Position.
func NewSet(items []Item) *Set {
	s := &Set{items: make([]Item, len(items))}
	copy(s.items, items)
	sort.SliceStable(s.items, func(i, j int) bool {
		return s.items[i].Position < s.items[j].Position
	})
	for _, it := range s.items {
		if it.Position >= s.nextPos {
			s.nextPos = it.Position + 1
		}
	}
	return s
}

// Items returns a copy of the set in insertion order.
func (s *Set) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Set) Len() int { return len(s.items) }

// Selected returns the selected item, if any.
func (s *Set) Selected() (Item, bool) {
	for _, it := range s.items {
		if it.Selected {
			return it, true
		}
	}
	return Item{}, false
}

// Add appends an attachment; Selected always starts false.
func (s *Set) Add(it Item) Item {
	it.Selected = false
	it.Position = s.nextPos
	s.nextPos++
	s.items = append(s.items, it)
	return it
}

// Select marks the given attachment selected and clears every other one. The
// swap is atomic with respect to the set: no caller ever observes two
// selected items.
func (s *Set) Select(id uuid.UUID) error {
	found := -1
	for i, it := range s.items {
		if it.ID == id {
			found = i
			break
		}
	}
	if found < 0 {
		return ErrNotFound
	}
	for i := range s.items {
		s.items[i].Selected = i == found
	}
	return nil
}

// Remove deletes the attachment. If it was the selected one, no attachment is
// selected afterward; the slot is not auto-reassigned.
func (s *Set) Remove(id uuid.UUID) error {
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// OrderedForReview returns the selected attachment first (if any), followed by
// the rest ascending by declared amount, ties broken by insertion order. The
// ordering is a pure function of current state: calling it twice without a
// mutation in between yields identical output.
func (s *Set) OrderedForReview() []Item {
	var selected []Item
	var rest []Item
	for _, it := range s.items {
		if it.Selected {
			selected = append(selected, it)
		} else {
			rest = append(rest, it)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].DeclaredAmount.LessThan(rest[j].DeclaredAmount)
	})
	return append(selected, rest...)
}
