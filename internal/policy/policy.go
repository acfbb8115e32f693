// Package policy decides whether an actor may perform an action on a resource.
//
// Two modes exist. Permissive lets any authenticated actor write anything, which
// mirrors the behaviour the API originally shipped with. Strict gates writes by
// role and ownership. Both modes are fail-closed: an unknown action, resource
// kind or role is denied.
package policy

import (
	"fmt"

	"github.com/rise171/system-control-defects/internal/apperrors"
	"github.com/rise171/system-control-defects/internal/models"
)

type Mode string

const (
	ModeStrict     Mode = "strict"
	ModePermissive Mode = "permissive"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Kind string

const (
	KindUser       Kind = "user"
	KindProject    Kind = "project"
	KindDefect     Kind = "defect"
	KindComment    Kind = "comment"
	KindAttachment Kind = "attachment"
)

// Actor is the authenticated caller. A nil *Actor means the request carried no identity.
type Actor struct {
	UserID uint
	Role   models.Role
}

// Resource describes the target of an action.
type Resource struct {
	Kind Kind
	ID   uint
	// OwnerID is the user that owns the resource: the user itself, the project
	// manager, the defect creator or the comment author.
	OwnerID uint
	// Role is the role a user resource is being created with or changed to.
	Role models.Role
	// RoleChange is set when an update alters a user's role.
	RoleChange bool
}

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed         bool
	Unauthenticated bool
	Reason          string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// Err converts a denial into an apperrors error; nil when allowed.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Unauthenticated:
		return fmt.Errorf("%w: %s", apperrors.ErrUnauthenticated, d.Reason)
	default:
		return fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, d.Reason)
	}
}

type Policy struct {
	mode Mode
}

// New returns a Policy in the given mode. Unknown modes fall back to strict.
func New(mode Mode) *Policy {
	if mode != ModePermissive {
		mode = ModeStrict
	}
	return &Policy{mode: mode}
}

func (p *Policy) Mode() Mode {
	return p.mode
}

// Authorize returns the decision for actor performing action on res.
func (p *Policy) Authorize(actor *Actor, action Action, res Resource) Decision {
	if !knownAction(action) {
		return deny("unknown action %q", action)
	}
	if !knownKind(res.Kind) {
		return deny("unknown resource kind %q", res.Kind)
	}

	if actor == nil {
		if res.Kind == KindUser && action == ActionCreate {
			return p.selfRegistration(res)
		}
		return Decision{Unauthenticated: true, Reason: "authentication required"}
	}
	if !actor.Role.Valid() {
		return deny("unknown role %q", actor.Role)
	}

	if action == ActionRead {
		return allow()
	}
	if res.Kind == KindUser && res.Role != "" && !res.Role.Valid() {
		return deny("unknown role %q", res.Role)
	}
	if res.Kind == KindUser && res.RoleChange && actor.Role != models.RoleAdmin {
		return deny("only admins may change roles")
	}

	if p.mode == ModePermissive {
		return allow()
	}
	return p.strict(actor, action, res)
}

func (p *Policy) selfRegistration(res Resource) Decision {
	if !res.Role.Valid() {
		return deny("unknown role %q", res.Role)
	}
	if p.mode == ModeStrict && res.Role.CanManageProjects() {
		return deny("role %s cannot be self-assigned", res.Role)
	}
	return allow()
}

func (p *Policy) strict(actor *Actor, action Action, res Resource) Decision {
	isAdmin := actor.Role == models.RoleAdmin
	isOwner := res.OwnerID != 0 && res.OwnerID == actor.UserID
	canWrite := actor.Role != models.RoleReader

	switch res.Kind {
	case KindUser:
		switch action {
		case ActionCreate:
			if isAdmin {
				return allow()
			}
			return deny("only admins may create users")
		case ActionUpdate, ActionDelete:
			if isAdmin || isOwner {
				return allow()
			}
			return deny("users may only %s their own account", action)
		}

	case KindProject:
		switch action {
		case ActionCreate:
			if actor.Role.CanManageProjects() {
				return allow()
			}
			return deny("only admins and managers may create projects")
		case ActionUpdate, ActionDelete:
			if isAdmin || (actor.Role == models.RoleManager && isOwner) {
				return allow()
			}
			return deny("only admins or the project manager may %s a project", action)
		}

	case KindDefect:
		switch action {
		case ActionCreate, ActionUpdate:
			if canWrite {
				return allow()
			}
			return deny("readers may not %s defects", action)
		case ActionDelete:
			if actor.Role.CanManageProjects() || (canWrite && isOwner) {
				return allow()
			}
			return deny("only admins, managers or the creator may delete a defect")
		}

	case KindComment:
		switch action {
		case ActionCreate:
			if canWrite {
				return allow()
			}
			return deny("readers may not comment")
		case ActionUpdate:
			if isAdmin || (canWrite && isOwner) {
				return allow()
			}
			return deny("only the author or an admin may edit a comment")
		case ActionDelete:
			if actor.Role.CanManageProjects() || (canWrite && isOwner) {
				return allow()
			}
			return deny("only the author, an admin or a manager may delete a comment")
		}

	case KindAttachment:
		if canWrite {
			return allow()
		}
		return deny("readers may not %s attachments", action)
	}

	return deny("no rule for %s on %s", action, res.Kind)
}

func knownAction(a Action) bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

func knownKind(k Kind) bool {
	switch k {
	case KindUser, KindProject, KindDefect, KindComment, KindAttachment:
		return true
	}
	return false
}
