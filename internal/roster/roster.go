// Package roster manages the available pool vs assigned set of approvers and
// informational recipients for a single request, with move-both-ways
// semantics mirroring the bidirectional list transfer in the client.
package roster

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"solicitudes/internal/model"
)

// DuplicateParticipantError reports an assignment of a user already assigned.
type DuplicateParticipantError struct {
	UserID uuid.UUID
}

func (e *DuplicateParticipantError) Error() string {
	return fmt.Sprintf("user %s is already assigned to this request", e.UserID)
}

// NotFoundError reports an operation on a user absent from the roster.
type NotFoundError struct {
	UserID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user %s is not on this roster", e.UserID)
}

// Member is one candidate or assigned participant.
type Member struct {
	UserID        uuid.UUID
	DisplayName   string
	Role          string // set when assigned: APPROVER or INFORMATIONAL
	ApprovalLimit decimal.Decimal
}

// Roster holds the two pools. Invariant: available and assigned are disjoint
// and their union always equals the candidate pool the roster was built from.
type Roster struct {
	available []Member
	assigned  []Member
}

// New builds a roster from the full candidate pool; everyone starts available.
func New(pool []Member) *Roster {
	r := &Roster{available: make([]Member, len(pool))}
	copy(r.available, pool)
	return r
}

// NewWithAssigned builds a roster whose members listed in assigned are already
// on the assigned side (reconstructing a persisted roster).
func NewWithAssigned(pool []Member, assigned map[uuid.UUID]string) *Roster {
	r := &Roster{}
	for _, m := range pool {
		if role, ok := assigned[m.UserID]; ok {
			m.Role = role
			r.assigned = append(r.assigned, m)
		} else {
			r.available = append(r.available, m)
		}
	}
	return r
}

// Available returns a copy of the available pool.
func (r *Roster) Available() []Member {
	out := make([]Member, len(r.available))
	copy(out, r.available)
	return out
}

// Assigned returns a copy of the assigned set.
func (r *Roster) Assigned() []Member {
	out := make([]Member, len(r.assigned))
	copy(out, r.assigned)
	return out
}

func indexOf(members []Member, userID uuid.UUID) int {
	for i, m := range members {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}

// Assign moves the user from the available pool to the assigned set with the
// given role. Assigning an already-assigned user fails with
// DuplicateParticipantError and leaves the roster unchanged.
func (r *Roster) Assign(userID uuid.UUID, role string) error {
	if indexOf(r.assigned, userID) >= 0 {
		return &DuplicateParticipantError{UserID: userID}
	}
	i := indexOf(r.available, userID)
	if i < 0 {
		return &NotFoundError{UserID: userID}
	}
	m := r.available[i]
	m.Role = role
	r.available = append(r.available[:i], r.available[i+1:]...)
	r.assigned = append(r.assigned, m)
	return nil
}

// Unassign moves the user back to the available pool.
func (r *Roster) Unassign(userID uuid.UUID) error {
	i := indexOf(r.assigned, userID)
	if i < 0 {
		return &NotFoundError{UserID: userID}
	}
	m := r.assigned[i]
	m.Role = ""
	r.assigned = append(r.assigned[:i], r.assigned[i+1:]...)
	r.available = append(r.available, m)
	return nil
}

// MoveToAssigned moves every selected member from available to assigned with
// the given role. The source list is walked from its tail backward so that
// in-place deletion never skips or duplicates an element relative to a
// forward walk with deletion; selected members not in the pool are ignored.
func (r *Roster) MoveToAssigned(selected map[uuid.UUID]bool, role string) {
	for i := len(r.available) - 1; i >= 0; i-- {
		m := r.available[i]
		if !selected[m.UserID] {
			continue
		}
		m.Role = role
		r.available = append(r.available[:i], r.available[i+1:]...)
		r.assigned = append(r.assigned, m)
	}
}

// MoveToAvailable moves every selected member from assigned back to available,
// walking the source from its tail backward as MoveToAssigned does.
func (r *Roster) MoveToAvailable(selected map[uuid.UUID]bool) {
	for i := len(r.assigned) - 1; i >= 0; i-- {
		m := r.assigned[i]
		if !selected[m.UserID] {
			continue
		}
		m.Role = ""
		r.assigned = append(r.assigned[:i], r.assigned[i+1:]...)
		r.available = append(r.available, m)
	}
}

// Search returns the available members whose display name contains term,
// case-insensitively. It never mutates roster state.
func (r *Roster) Search(term string) []Member {
	term = strings.ToLower(term)
	var out []Member
	for _, m := range r.available {
		if strings.Contains(strings.ToLower(m.DisplayName), term) {
			out = append(out, m)
		}
	}
	return out
}

// HasApprover reports whether at least one assigned member is an approver.
func (r *Roster) HasApprover() bool {
	for _, m := range r.assigned {
		if m.Role == model.RoleApprover {
			return true
		}
	}
	return false
}

// HasQualifiedApprover reports whether at least one assigned approver's
// approval limit covers amount.
func (r *Roster) HasQualifiedApprover(amount decimal.Decimal) bool {
	for _, m := range r.assigned {
		if m.Role == model.RoleApprover && m.ApprovalLimit.GreaterThanOrEqual(amount) {
			return true
		}
	}
	return false
}
