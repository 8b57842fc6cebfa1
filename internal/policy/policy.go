// Package policy is the connection policy engine: a pure decision over a
// pair of roles, with no I/O and no knowledge of individual users.
package policy

import "beeja-hrm-backend/internal/model"

// Decision says whether a role pair may chat directly or must go through
// the connection-request workflow first.
type Decision int

const (
	Allowed Decision = iota
	RequiresApproval
)

func (d Decision) String() string {
	if d == RequiresApproval {
		return "requires_approval"
	}
	return "allowed"
}

// Decide returns the policy for an unordered role pair. It is total over
// the role set and symmetric: Decide(a, b) == Decide(b, a).
//
// Rule: a pair with exactly one elevated side goes through approval; any
// other pair (both elevated, or neither) chats directly. Direction is not
// policy's concern — the chat service exempts an elevated initiator from
// the approval requirement.
func Decide(a, b model.Role) Decision {
	if a.Elevated() != b.Elevated() {
		return RequiresApproval
	}
	return Allowed
}
