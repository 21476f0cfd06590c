package attachment

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(name, amount string) Item {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		panic(err)
	}
	return Item{ID: uuid.New(), FileName: name, DeclaredAmount: d}
}

func selectedCount(s *Set) int {
	n := 0
	for _, it := range s.Items() {
		if it.Selected {
			n++
		}
	}
	return n
}

func TestAddNeverSelects(t *testing.T) {
	s := NewSet(nil)

	a := s.Add(item("quote-a.pdf", "1200"))
	b := s.Add(item("quote-b.pdf", "900"))

	assert.False(t, a.Selected)
	assert.False(t, b.Selected)
	assert.Equal(t, 0, a.Position)
	assert.Equal(t, 1, b.Position)
	assert.Equal(t, 0, selectedCount(s))
}

func TestSelectSwapsAtomically(t *testing.T) {
	s := NewSet(nil)
	a := s.Add(item("quote-a.pdf", "1200"))
	b := s.Add(item("quote-b.pdf", "900"))

	require.NoError(t, s.Select(a.ID))
	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, a.ID, sel.ID)
	assert.Equal(t, 1, selectedCount(s))

	require.NoError(t, s.Select(b.ID))
	sel, ok = s.Selected()
	require.True(t, ok)
	assert.Equal(t, b.ID, sel.ID)
	assert.Equal(t, 1, selectedCount(s))
}

func TestSelectUnknownID(t *testing.T) {
	s := NewSet(nil)
	s.Add(item("quote-a.pdf", "1200"))

	assert.ErrorIs(t, s.Select(uuid.New()), ErrNotFound)
	assert.Equal(t, 0, selectedCount(s))
}

func TestRemoveSelectedLeavesNoneSelected(t *testing.T) {
	s := NewSet(nil)
	a := s.Add(item("quote-a.pdf", "1200"))
	s.Add(item("quote-b.pdf", "900"))
	require.NoError(t, s.Select(a.ID))

	require.NoError(t, s.Remove(a.ID))

	assert.Equal(t, 1, s.Len())
	_, ok := s.Selected()
	assert.False(t, ok, "the selected slot is not auto-reassigned")
}

func TestRemoveUnknownID(t *testing.T) {
	s := NewSet(nil)
	assert.ErrorIs(t, s.Remove(uuid.New()), ErrNotFound)
}

func TestNewSetRestoresInsertionOrder(t *testing.T) {
	a := item("quote-a.pdf", "100")
	a.Position = 2
	b := item("quote-b.pdf", "200")
	b.Position = 0
	c := item("quote-c.pdf", "300")
	c.Position = 1

	s := NewSet([]Item{a, b, c})

	items := s.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "quote-b.pdf", items[0].FileName)
	assert.Equal(t, "quote-c.pdf", items[1].FileName)
	assert.Equal(t, "quote-a.pdf", items[2].FileName)

	// New additions continue after the highest restored position.
	added := s.Add(item("quote-d.pdf", "400"))
	assert.Equal(t, 3, added.Position)
}

func TestOrderedForReview(t *testing.T) {
	s := NewSet(nil)
	high := s.Add(item("high.pdf", "5000"))
	low := s.Add(item("low.pdf", "100"))
	mid := s.Add(item("mid.pdf", "800"))
	require.NoError(t, s.Select(mid.ID))

	ordered := s.OrderedForReview()

	require.Len(t, ordered, 3)
	assert.Equal(t, mid.ID, ordered[0].ID, "selected comes first")
	assert.Equal(t, low.ID, ordered[1].ID)
	assert.Equal(t, high.ID, ordered[2].ID)
}

func TestOrderedForReviewBreaksTiesByInsertion(t *testing.T) {
	s := NewSet(nil)
	first := s.Add(item("first.pdf", "700"))
	second := s.Add(item("second.pdf", "700"))

	ordered := s.OrderedForReview()

	require.Len(t, ordered, 2)
	assert.Equal(t, first.ID, ordered[0].ID)
	assert.Equal(t, second.ID, ordered[1].ID)
}

func TestOrderedForReviewIsPure(t *testing.T) {
	s := NewSet(nil)
	s.Add(item("quote-a.pdf", "300"))
	b := s.Add(item("quote-b.pdf", "100"))
	require.NoError(t, s.Select(b.ID))

	first := s.OrderedForReview()
	second := s.OrderedForReview()

	assert.Equal(t, first, second)
	// The underlying insertion order is untouched.
	items := s.Items()
	assert.Equal(t, "quote-a.pdf", items[0].FileName)
}

// Random add/select/remove sequences must never leave more than one item
// selected.
func TestSingleSelectionUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := NewSet(nil)
	var ids []uuid.UUID

	for i := 0; i < 500; i++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(ids) == 0:
			added := s.Add(item("quote.pdf", "100"))
			ids = append(ids, added.ID)
		case op == 1:
			require.NoError(t, s.Select(ids[rng.Intn(len(ids))]))
		default:
			idx := rng.Intn(len(ids))
			require.NoError(t, s.Remove(ids[idx]))
			ids = append(ids[:idx], ids[idx+1:]...)
		}

		require.LessOrEqual(t, selectedCount(s), 1, "iteration %d", i)
		require.Equal(t, len(ids), s.Len())
	}
}
