package authz

import (
	"github.com/spec-kit/helpdesk/internal/domain"
)

// Operation enumerates the actions the gate can grant on a ticket.
type Operation string

const (
	OpAssign   Operation = "assign"
	OpStart    Operation = "start"
	OpClose    Operation = "close"
	OpReturn   Operation = "return"
	OpReassign Operation = "reassign"
	OpReopen   Operation = "reopen"
	OpComment  Operation = "comment"
	OpView     Operation = "view"
)

var allOps = []Operation{OpAssign, OpStart, OpClose, OpReturn, OpReassign, OpReopen, OpComment, OpView}

// PermittedOps maps (role, acting user, ticket) to the set of operations the
// actor may attempt on that ticket. A nil actor is the system itself (email
// intake, automatic routing) and is granted everything. The gate is checked
// before the transition table, so a role miss surfaces as FORBIDDEN even
// when the requested transition would also be invalid.
func PermittedOps(actor *domain.User, ticket *domain.Ticket) map[Operation]struct{} {
	ops := make(map[Operation]struct{})
	if actor == nil {
		for _, op := range allOps {
			ops[op] = struct{}{}
		}
		return ops
	}

	switch actor.Role {
	case domain.RoleAdmin:
		for _, op := range allOps {
			ops[op] = struct{}{}
		}
	case domain.RoleDispatcher:
		ops[OpAssign] = struct{}{}
		ops[OpReassign] = struct{}{}
		ops[OpReturn] = struct{}{}
		ops[OpView] = struct{}{}
	case domain.RoleTechnician:
		if ticket != nil && ticket.AssignedTo(actor.ID) {
			ops[OpStart] = struct{}{}
			ops[OpClose] = struct{}{}
			ops[OpReturn] = struct{}{}
			ops[OpComment] = struct{}{}
			ops[OpView] = struct{}{}
		}
	}
	return ops
}

// Can reports whether the actor may attempt the operation on the ticket.
func Can(actor *domain.User, op Operation, ticket *domain.Ticket) bool {
	_, ok := PermittedOps(actor, ticket)[op]
	return ok
}
