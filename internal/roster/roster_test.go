package roster

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solicitudes/internal/model"
)

func pool(names ...string) []Member {
	members := make([]Member, 0, len(names))
	for _, n := range names {
		members = append(members, Member{UserID: uuid.New(), DisplayName: n})
	}
	return members
}

// total size, disjointness and union must survive any sequence of operations
func checkInvariants(t *testing.T, r *Roster, wantTotal int) {
	t.Helper()
	available := r.Available()
	assigned := r.Assigned()
	assert.Equal(t, wantTotal, len(available)+len(assigned))

	seen := make(map[uuid.UUID]bool)
	for _, m := range available {
		assert.False(t, seen[m.UserID], "duplicate member %s", m.DisplayName)
		seen[m.UserID] = true
	}
	for _, m := range assigned {
		assert.False(t, seen[m.UserID], "member %s in both pools", m.DisplayName)
		seen[m.UserID] = true
	}
}

func TestAssignAndUnassign(t *testing.T) {
	members := pool("Ana Torres", "Bruno Díaz", "Carla Vega")
	r := New(members)

	require.NoError(t, r.Assign(members[1].UserID, model.RoleApprover))
	checkInvariants(t, r, 3)

	assigned := r.Assigned()
	require.Len(t, assigned, 1)
	assert.Equal(t, "Bruno Díaz", assigned[0].DisplayName)
	assert.Equal(t, model.RoleApprover, assigned[0].Role)

	require.NoError(t, r.Unassign(members[1].UserID))
	checkInvariants(t, r, 3)
	assert.Empty(t, r.Assigned())
}

func TestDuplicateAssignLeavesRosterUnchanged(t *testing.T) {
	members := pool("Ana Torres", "Bruno Díaz")
	r := New(members)
	require.NoError(t, r.Assign(members[0].UserID, model.RoleApprover))

	err := r.Assign(members[0].UserID, model.RoleInformational)

	var dup *DuplicateParticipantError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, members[0].UserID, dup.UserID)

	// Unchanged: still one assigned, role not overwritten.
	assigned := r.Assigned()
	require.Len(t, assigned, 1)
	assert.Equal(t, model.RoleApprover, assigned[0].Role)
	checkInvariants(t, r, 2)
}

func TestAssignUnknownUser(t *testing.T) {
	r := New(pool("Ana Torres"))

	err := r.Assign(uuid.New(), model.RoleApprover)

	var missing *NotFoundError
	assert.ErrorAs(t, err, &missing)
	assert.Empty(t, r.Assigned())
}

func TestUnassignUnknownUser(t *testing.T) {
	r := New(pool("Ana Torres"))

	var missing *NotFoundError
	assert.ErrorAs(t, r.Unassign(uuid.New()), &missing)
}

func TestMoveToAssignedBulk(t *testing.T) {
	members := pool("Ana Torres", "Bruno Díaz", "Carla Vega", "Diego Fuentes")
	r := New(members)

	selected := map[uuid.UUID]bool{
		members[0].UserID: true,
		members[2].UserID: true,
	}
	r.MoveToAssigned(selected, model.RoleInformational)

	checkInvariants(t, r, 4)
	assigned := r.Assigned()
	require.Len(t, assigned, 2)
	for _, m := range assigned {
		assert.True(t, selected[m.UserID])
		assert.Equal(t, model.RoleInformational, m.Role)
	}
	for _, m := range r.Available() {
		assert.False(t, selected[m.UserID])
	}
}

// Moving a selection one way and then straight back must restore the original
// membership of both pools, whatever the selection.
func TestMoveRoundTripRestoresPools(t *testing.T) {
	members := pool("Ana Torres", "Bruno Díaz", "Carla Vega", "Diego Fuentes", "Elena Ríos")
	r := New(members)

	selected := map[uuid.UUID]bool{
		members[0].UserID: true,
		members[1].UserID: true,
		members[4].UserID: true,
	}
	r.MoveToAssigned(selected, model.RoleApprover)
	r.MoveToAvailable(selected)

	checkInvariants(t, r, 5)
	assert.Empty(t, r.Assigned())
	assert.Len(t, r.Available(), 5)
	for _, m := range r.Available() {
		assert.Empty(t, m.Role)
	}
}

func TestMoveIgnoresSelectionsOutsideThePool(t *testing.T) {
	members := pool("Ana Torres", "Bruno Díaz")
	r := New(members)

	r.MoveToAssigned(map[uuid.UUID]bool{
		members[0].UserID: true,
		uuid.New():        true, // not in the pool
	}, model.RoleApprover)

	checkInvariants(t, r, 2)
	assert.Len(t, r.Assigned(), 1)
}

func TestMoveAdjacentSelectedMembers(t *testing.T) {
	// Adjacent selected entries are the classic trap for deletion during a
	// forward walk; the tail-backward walk must move all of them.
	members := pool("Ana Torres", "Bruno Díaz", "Carla Vega", "Diego Fuentes")
	r := New(members)

	selected := map[uuid.UUID]bool{
		members[1].UserID: true,
		members[2].UserID: true,
	}
	r.MoveToAssigned(selected, model.RoleApprover)

	assert.Len(t, r.Assigned(), 2)
	assert.Len(t, r.Available(), 2)
	checkInvariants(t, r, 4)
}

func TestSearchIsCaseInsensitiveAndPure(t *testing.T) {
	members := pool("Ana Torres", "Bruno Díaz", "Mariana Torres")
	r := New(members)

	matches := r.Search("torres")
	assert.Len(t, matches, 2)

	matches = r.Search("TORRES")
	assert.Len(t, matches, 2)

	matches = r.Search("zzz")
	assert.Empty(t, matches)

	// Searching never mutates the pools.
	checkInvariants(t, r, 3)
	assert.Len(t, r.Available(), 3)
}

func TestSearchOnlyCoversAvailablePool(t *testing.T) {
	members := pool("Ana Torres", "Mariana Torres")
	r := New(members)
	require.NoError(t, r.Assign(members[0].UserID, model.RoleApprover))

	matches := r.Search("torres")
	require.Len(t, matches, 1)
	assert.Equal(t, "Mariana Torres", matches[0].DisplayName)
}

func TestHasQualifiedApprover(t *testing.T) {
	limit := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		if err != nil {
			panic(err)
		}
		return d
	}

	members := []Member{
		{UserID: uuid.New(), DisplayName: "Ana Torres", ApprovalLimit: limit("100000")},
		{UserID: uuid.New(), DisplayName: "Bruno Díaz", ApprovalLimit: limit("900000")},
	}
	r := New(members)

	assert.False(t, r.HasApprover())
	assert.False(t, r.HasQualifiedApprover(limit("50000")))

	require.NoError(t, r.Assign(members[0].UserID, model.RoleApprover))
	assert.True(t, r.HasApprover())
	assert.True(t, r.HasQualifiedApprover(limit("100000")))
	assert.False(t, r.HasQualifiedApprover(limit("100001")))

	// Informational members never qualify, whatever their limit.
	require.NoError(t, r.Assign(members[1].UserID, model.RoleInformational))
	assert.False(t, r.HasQualifiedApprover(limit("500000")))
}
