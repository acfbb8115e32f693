package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rise171/system-control-defects/internal/apperrors"
	"github.com/rise171/system-control-defects/internal/models"
)

var (
	admin    = &Actor{UserID: 1, Role: models.RoleAdmin}
	manager  = &Actor{UserID: 2, Role: models.RoleManager}
	engineer = &Actor{UserID: 3, Role: models.RoleEngineer}
	reader   = &Actor{UserID: 4, Role: models.RoleReader}
)

func TestAuthorize_Strict(t *testing.T) {
	p := New(ModeStrict)

	cases := []struct {
		name    string
		actor   *Actor
		action  Action
		res     Resource
		allowed bool
	}{
		{"reader reads defects", reader, ActionRead, Resource{Kind: KindDefect, ID: 9}, true},
		{"anonymous read", nil, ActionRead, Resource{Kind: KindDefect}, false},
		{"register engineer", nil, ActionCreate, Resource{Kind: KindUser, Role: models.RoleEngineer}, true},
		{"register admin", nil, ActionCreate, Resource{Kind: KindUser, Role: models.RoleAdmin}, false},
		{"register unknown role", nil, ActionCreate, Resource{Kind: KindUser, Role: "root"}, false},
		{"admin creates manager", admin, ActionCreate, Resource{Kind: KindUser, Role: models.RoleManager}, true},
		{"engineer creates user", engineer, ActionCreate, Resource{Kind: KindUser, Role: models.RoleReader}, false},
		{"reader updates self", reader, ActionUpdate, Resource{Kind: KindUser, ID: 4, OwnerID: 4}, true},
		{"reader updates other", reader, ActionUpdate, Resource{Kind: KindUser, ID: 3, OwnerID: 3}, false},
		{"self role change", engineer, ActionUpdate, Resource{Kind: KindUser, ID: 3, OwnerID: 3, Role: models.RoleAdmin, RoleChange: true}, false},
		{"admin role change", admin, ActionUpdate, Resource{Kind: KindUser, ID: 3, OwnerID: 3, Role: models.RoleManager, RoleChange: true}, true},
		{"admin deletes user", admin, ActionDelete, Resource{Kind: KindUser, ID: 3, OwnerID: 3}, true},
		{"manager creates project", manager, ActionCreate, Resource{Kind: KindProject}, true},
		{"engineer creates project", engineer, ActionCreate, Resource{Kind: KindProject}, false},
		{"manager updates own project", manager, ActionUpdate, Resource{Kind: KindProject, OwnerID: 2}, true},
		{"manager updates foreign project", manager, ActionUpdate, Resource{Kind: KindProject, OwnerID: 99}, false},
		{"admin deletes project", admin, ActionDelete, Resource{Kind: KindProject, OwnerID: 99}, true},
		{"engineer creates defect", engineer, ActionCreate, Resource{Kind: KindDefect}, true},
		{"reader creates defect", reader, ActionCreate, Resource{Kind: KindDefect}, false},
		{"engineer deletes own defect", engineer, ActionDelete, Resource{Kind: KindDefect, OwnerID: 3}, true},
		{"engineer deletes other defect", engineer, ActionDelete, Resource{Kind: KindDefect, OwnerID: 1}, false},
		{"manager deletes defect", manager, ActionDelete, Resource{Kind: KindDefect, OwnerID: 1}, true},
		{"author edits comment", engineer, ActionUpdate, Resource{Kind: KindComment, OwnerID: 3}, true},
		{"manager edits comment", manager, ActionUpdate, Resource{Kind: KindComment, OwnerID: 3}, false},
		{"manager deletes comment", manager, ActionDelete, Resource{Kind: KindComment, OwnerID: 3}, true},
		{"reader comments", reader, ActionCreate, Resource{Kind: KindComment}, false},
		{"engineer attaches", engineer, ActionCreate, Resource{Kind: KindAttachment}, true},
		{"reader deletes attachment", reader, ActionDelete, Resource{Kind: KindAttachment}, false},
		{"unknown kind", admin, ActionRead, Resource{Kind: "invoice"}, false},
		{"unknown action", admin, "archive", Resource{Kind: KindDefect}, false},
		{"unknown actor role", &Actor{UserID: 5, Role: "guest"}, ActionRead, Resource{Kind: KindDefect}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := p.Authorize(tc.actor, tc.action, tc.res)
			require.Equal(t, tc.allowed, d.Allowed, d.Reason)
			if !tc.allowed {
				require.NotEmpty(t, d.Reason)
				require.Error(t, d.Err())
			}
		})
	}
}

func TestAuthorize_Permissive(t *testing.T) {
	p := New(ModePermissive)

	require.True(t, p.Authorize(reader, ActionDelete, Resource{Kind: KindProject, OwnerID: 99}).Allowed)
	require.True(t, p.Authorize(reader, ActionUpdate, Resource{Kind: KindUser, OwnerID: 1}).Allowed)
	require.True(t, p.Authorize(nil, ActionCreate, Resource{Kind: KindUser, Role: models.RoleAdmin}).Allowed)

	require.False(t, p.Authorize(nil, ActionUpdate, Resource{Kind: KindDefect}).Allowed)
	require.False(t, p.Authorize(engineer, ActionUpdate, Resource{Kind: KindUser, OwnerID: 3, Role: models.RoleAdmin, RoleChange: true}).Allowed)
	require.False(t, p.Authorize(engineer, ActionRead, Resource{Kind: "invoice"}).Allowed)
}

func TestDecisionErr(t *testing.T) {
	p := New(ModeStrict)

	require.NoError(t, p.Authorize(admin, ActionDelete, Resource{Kind: KindDefect}).Err())
	require.ErrorIs(t, p.Authorize(nil, ActionDelete, Resource{Kind: KindDefect}).Err(), apperrors.ErrUnauthenticated)
	require.ErrorIs(t, p.Authorize(reader, ActionDelete, Resource{Kind: KindDefect}).Err(), apperrors.ErrUnauthorized)
}

func TestNew_UnknownModeIsStrict(t *testing.T) {
	require.Equal(t, ModeStrict, New("whatever").Mode())
	require.Equal(t, ModePermissive, New(ModePermissive).Mode())
}
