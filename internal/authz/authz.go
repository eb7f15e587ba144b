// Package authz is the authorization gate consulted before every mutation.
// Authorize is a pure decision function: it reads nothing and writes nothing,
// callers assemble the Resource from state they have already loaded.
package authz

import (
	"clubhub/internal/identity"
)

// Action identifies a mutation subject to authorization.
type Action string

const (
	ActionClubCreate         Action = "club.create"
	ActionClubUpdate         Action = "club.update"
	ActionClubDelete         Action = "club.delete"
	ActionClubSetCoordinator Action = "club.set_coordinator"
	ActionClubPromote        Action = "club.promote"
	ActionClubJoin           Action = "club.join"
	ActionClubLeave          Action = "club.leave"
	ActionEventCreate        Action = "event.create"
	ActionEventUpdate        Action = "event.update"
	ActionEventDelete        Action = "event.delete"
	ActionEventAdvance       Action = "event.advance"
	ActionEventRegister      Action = "event.register"
	ActionEventCancel        Action = "event.cancel"
	ActionAttendanceMark     Action = "attendance.mark"
)

// Stable deny reason codes surfaced to callers.
const (
	ReasonInsufficientRole  = "insufficient-role"
	ReasonNotClubAuthority  = "not-club-authority"
	ReasonEventNotCompleted = "event-not-completed"
	ReasonSelfOnly          = "self-only"
)

// Resource carries the slice of state a rule needs. Callers fill only the
// fields relevant to the action.
type Resource struct {
	// SubjectID is the user a self-only action operates on.
	SubjectID string
	// ClubCoordinatorID is the designated coordinator of the club that owns
	// the resource.
	ClubCoordinatorID string
	// ActorClubRole is the actor's active membership role in that club
	// ("member", "leader", "coordinator") or empty when not a member.
	ActorClubRole string
	// EventCompleted reports whether the event has reached completed status.
	EventCompleted bool
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// DeniedError carries a deny decision across an error return.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return "authorization denied: " + e.Reason
}

// Err converts a deny decision into an error, nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Reason: d.Reason}
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

func staff(role identity.Role) bool {
	return role == identity.RoleTeacher || role == identity.RoleAdmin
}

func clubAuthority(r Resource, actorID string) bool {
	return r.ClubCoordinatorID == actorID || r.ActorClubRole == "leader" || r.ActorClubRole == "coordinator"
}

// Authorize decides whether actor may perform action on the resource.
// Rules are checked in order; the first match wins.
func Authorize(actor identity.User, action Action, res Resource) Decision {
	if actor.Role == identity.RoleAdmin {
		return allow()
	}

	switch action {
	case ActionClubCreate, ActionClubUpdate, ActionClubDelete:
		if staff(actor.Role) {
			return allow()
		}
		return deny(ReasonInsufficientRole)

	case ActionClubSetCoordinator:
		// Coordinator reassignment is admin-only; admins were allowed above.
		return deny(ReasonInsufficientRole)

	case ActionClubPromote:
		// Role changes are reserved for the club coordinator (or admin).
		if !staff(actor.Role) {
			return deny(ReasonInsufficientRole)
		}
		if res.ClubCoordinatorID != actor.ID && res.ActorClubRole != "coordinator" {
			return deny(ReasonNotClubAuthority)
		}
		return allow()

	case ActionEventCreate, ActionEventUpdate, ActionEventDelete, ActionEventAdvance:
		if !staff(actor.Role) {
			return deny(ReasonInsufficientRole)
		}
		if !clubAuthority(res, actor.ID) {
			return deny(ReasonNotClubAuthority)
		}
		return allow()

	case ActionAttendanceMark:
		if !staff(actor.Role) {
			return deny(ReasonInsufficientRole)
		}
		if !res.EventCompleted {
			return deny(ReasonEventNotCompleted)
		}
		return allow()

	case ActionClubJoin, ActionClubLeave, ActionEventRegister, ActionEventCancel:
		if actor.ID != res.SubjectID {
			return deny(ReasonSelfOnly)
		}
		return allow()
	}

	return deny(ReasonInsufficientRole)
}
