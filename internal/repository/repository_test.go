package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rise171/system-control-defects/internal/apperrors"
	"github.com/rise171/system-control-defects/internal/auth"
	"github.com/rise171/system-control-defects/internal/models"
	"github.com/rise171/system-control-defects/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(testutil.NewInMemoryDB(t))
}

func TestNewPageDefaults(t *testing.T) {
	require.Equal(t, Page{Limit: DefaultLimit, Offset: 0}, NewPage(0, -5))
	require.Equal(t, Page{Limit: MaxLimit, Offset: 10}, NewPage(5000, 10))
	require.Equal(t, Page{Limit: 2, Offset: 4}, NewPage(2, 4))
}

func TestUserCreate_NormalizesEmailAndHashesPassword(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	u, err := s.Users.Create(ctx, UserInput{Email: "  Alice@Example.COM ", Password: "password123", Name: " Alice ", Role: models.RoleEngineer})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", u.Email)
	require.Equal(t, "Alice", u.Name)
	require.NotEqual(t, "password123", u.PasswordHash)
	require.True(t, auth.VerifyPassword("password123", u.PasswordHash))

	byEmail, err := s.Users.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
}

func TestUserCreate_DuplicateEmailIsConflict(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Users.Create(ctx, UserInput{Email: "dup@example.com", Password: "password123", Name: "A", Role: models.RoleReader})
	require.NoError(t, err)

	_, err = s.Users.Create(ctx, UserInput{Email: "DUP@example.com", Password: "password456", Name: "B", Role: models.RoleReader})
	require.ErrorIs(t, err, apperrors.ErrConflict)

	users, err := s.Users.List(ctx, NewPage(0, 0))
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestUserUpdate_PartialAndPasswordRehash(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u, err := s.Users.Create(ctx, UserInput{Email: "bob@example.com", Password: "password123", Name: "Bob", Role: models.RoleEngineer})
	require.NoError(t, err)

	updated, err := s.Users.Update(ctx, u.ID, UserPatch{Name: ptr("Robert")})
	require.NoError(t, err)
	require.Equal(t, "Robert", updated.Name)
	require.Equal(t, u.Email, updated.Email)
	require.Equal(t, u.Role, updated.Role)
	require.Equal(t, u.PasswordHash, updated.PasswordHash)

	updated, err = s.Users.Update(ctx, u.ID, UserPatch{Password: ptr("new-password-1")})
	require.NoError(t, err)
	require.True(t, auth.VerifyPassword("new-password-1", updated.PasswordHash))
	require.False(t, auth.VerifyPassword("password123", updated.PasswordHash))

	_, err = s.Users.Update(ctx, 999, UserPatch{Name: ptr("x")})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserUpdate_EmailTakenIsConflict(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	a, err := s.Users.Create(ctx, UserInput{Email: "a@example.com", Password: "password123", Name: "A", Role: models.RoleReader})
	require.NoError(t, err)
	_, err = s.Users.Create(ctx, UserInput{Email: "b@example.com", Password: "password123", Name: "B", Role: models.RoleReader})
	require.NoError(t, err)

	_, err = s.Users.Update(ctx, a.ID, UserPatch{Email: ptr("B@example.com")})
	require.ErrorIs(t, err, apperrors.ErrConflict)

	// Same email in a different case is not a change.
	_, err = s.Users.Update(ctx, a.ID, UserPatch{Email: ptr("A@EXAMPLE.com")})
	require.NoError(t, err)
}

func TestUserUpdate_DemotingProjectManagerIsConflict(t *testing.T) {
	db := testutil.NewInMemoryDB(t)
	s := New(db)
	ctx := context.Background()
	mgr := testutil.SeedUser(t, db, "mgr@example.com", "password123", models.RoleManager)
	testutil.SeedProject(t, db, "Tower", mgr.ID)

	_, err := s.Users.Update(ctx, mgr.ID, UserPatch{Role: ptr(models.RoleEngineer)})
	require.ErrorIs(t, err, apperrors.ErrConflict)

	promoted, err := s.Users.Update(ctx, mgr.ID, UserPatch{Role: ptr(models.RoleAdmin)})
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, promoted.Role)
}

func TestUserDelete_ReferencedIsConflict(t *testing.T) {
	db := testutil.NewInMemoryDB(t)
	s := New(db)
	ctx := context.Background()
	mgr := testutil.SeedUser(t, db, "mgr@example.com", "password123", models.RoleManager)
	eng := testutil.SeedUser(t, db, "eng@example.com", "password123", models.RoleEngineer)
	lone := testutil.SeedUser(t, db, "lone@example.com", "password123", models.RoleReader)
	p := testutil.SeedProject(t, db, "Tower", mgr.ID)
	testutil.SeedDefect(t, db, "Crack", p.ID, eng.ID)

	_, err := s.Users.Delete(ctx, mgr.ID)
	require.ErrorIs(t, err, apperrors.ErrConflict)
	_, err = s.Users.Delete(ctx, eng.ID)
	require.ErrorIs(t, err, apperrors.ErrConflict)

	ok, err := s.Users.Delete(ctx, lone.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = s.Users.Get(ctx, lone.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProjectCreate_ManagerRules(t *testing.T) {
	db := testutil.NewInMemoryDB(t)
	s := New(db)
	ctx := context.Background()
	mgr := testutil.SeedUser(t, db, "mgr@example.com", "password123", models.RoleManager)
	reader := testutil.SeedUser(t, db, "reader@example.com", "password123", models.RoleReader)

	_, err := s.Projects.Create(ctx, ProjectInput{Name: "P", ManagerID: reader.ID})
	require.ErrorIs(t, err, apperrors.ErrInvalid)

	_, err = s.Projects.Create(ctx, ProjectInput{Name: "P", ManagerID: 4242})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	p, err := s.Projects.Create(ctx, ProjectInput{Name: "  Bridge ", ManagerID: mgr.ID})
	require.NoError(t, err)
	require.Equal(t, "Bridge", p.Name)
	require.True(t, p.IsActive)

	inactive, err := s.Projects.Create(ctx, ProjectInput{Name: "Old", ManagerID: mgr.ID, IsActive: ptr(false)})
	require.NoError(t, err)
	require.False(t, inactive.IsActive)
}

func TestProjectDates(t *testing.T) {
	db := testutil.NewInMemoryDB(t)
	s := New(db)
	ctx := context.Background()
	mgr := testutil.SeedUser(t, db, "mgr@example.com", "password123", models.RoleManager)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, -1, 0)
	_, err := s.Projects.Create(ctx, ProjectInput{Name: "P", ManagerID: mgr.ID, StartDate: &start, EndDate: &end})
	require.ErrorIs(t, err, apperrors.ErrInvalid)

	p, err := s.Projects.Create(ctx, ProjectInput{Name: "P", ManagerID: mgr.ID, StartDate: &start})
	require.NoError(t, err)
	_, err = s.Projects.Update(ctx, p.ID, ProjectPatch{EndDate: &end})
	require.ErrorIs(t, err, apperrors.ErrInvalid)
}

func TestProjectDelete(t *testing.T) {
	db := testutil.NewInMemoryDB(t)
	s := New(db)
	ctx := context.Background()
	mgr := testutil.SeedUser(t, db, "mgr@example.com", "password123", models.RoleManager)
	withDefects := testutil.SeedProject(t, db, "Busy", mgr.ID)
	empty := testutil.SeedProject(t, db, "Empty", mgr.ID)
	testutil.SeedDefect(t, db, "Leak", withDefects.ID, mgr.ID)

	_, err := s.Projects.Delete(ctx, withDefects.ID)
	require.ErrorIs(t, err, apperrors.ErrConflict)

	ok, err := s.Projects.Delete(ctx, empty.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDefectCreate_DefaultsAndValidation(t *testing.T) {
	db := testutil.NewInMemoryDB(t)
	s := New(db)
	ctx := context.Background()
	mgr := testutil.SeedUser(t, db, "mgr@example.com", "password123", models.RoleManager)
	p := testutil.SeedProject(t, db, "Tower", mgr.ID)

	d, err := s.Defects.Create(ctx, DefectInput{Title: " Crack in wall ", ProjectID: p.ID, CreatedByID: mgr.ID})
	require.NoError(t, err)
	require.Equal(t, "Crack in wall", d.Title)
	require.Equal(t, models.StatusNew, d.Status)
	require.Equal(t, models.PriorityMedium, d.Priority)
	require.Nil(t, d.AssignedToID)

	_, err = s.Defects.Create(ctx, DefectInput{Title: "   ", ProjectID: p.ID, CreatedByID: mgr.ID})
	require.ErrorIs(t, err, apperrors.ErrInvalid)

	long := make([]rune, models.MaxDefectTitle+1)
	for i := range long {
		long[i] = 'ж'
	}
	_, err = s.Defects.Create(ctx, DefectInput{Title: string(long), ProjectID: p.ID, CreatedByID: mgr.ID})
	require.ErrorIs(t, err, apperrors.ErrInvalid)

	_, err = s.Defects.Create(ctx, DefectInput{Title: "x", ProjectID: 777, CreatedByID: mgr.ID})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = s.Defects.Create(ctx, DefectInput{Title: "x", ProjectID: p.ID, CreatedByID: mgr.ID, AssignedToID: ptr(uint(777))})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDefectUpdate_PartialAndUnassign(t *testing.T) {
	db := testutil.NewInMemoryDB(t)
	s := New(db)
	ctx := context.Background()
	mgr := testutil.SeedUser(t, db, "mgr@example.com", "password123", models.RoleManager)
	eng := testutil.SeedUser(t, db, "eng@example.com", "password123", models.RoleEngineer)
	p := testutil.SeedProject(t, db, "Tower", mgr.ID)

	d, err := s.Defects.Create(ctx, DefectInput{
		Title:        "Leak",
		Description:  "water",
		Priority:     models.PriorityHigh,
		ProjectID:    p.ID,
		CreatedByID:  mgr.ID,
		AssignedToID: &eng.ID,
	})
	require.NoError(t, err)
	require.Equal(t, eng.ID, *d.AssignedToID)

	updated, err := s.Defects.Update(ctx, d.ID, DefectPatch{Status: ptr(models.StatusClosed)})
	require.NoError(t, err)
	require.Equal(t, models.StatusClosed, updated.Status)
	require.Equal(t, "Leak", updated.Title)
	require.Equal(t, "water", updated.Description)
	require.Equal(t, models.PriorityHigh, updated.Priority)
	require.Equal(t, eng.ID, *updated.AssignedToID)

	// Any status may follow any other.
	updated, err = s.Defects.Update(ctx, d.ID, DefectPatch{Status: ptr(models.StatusNew)})
	require.NoError(t, err)
	require.Equal(t, models.StatusNew, updated.Status)

	updated, err = s.Defects.Update(ctx, d.ID, DefectPatch{AssignedToID: ptr(uint(0))})
	require.NoError(t, err)
	require.Nil(t, updated.AssignedToID)

	_, err = s.Defects.Update(ctx, d.ID, DefectPatch{Status: ptr(models.DefectStatus("done"))})
	require.ErrorIs(t, err, apperrors.ErrInvalid)
}

func TestDefectListPaging(t *testing.T) {
	db := testutil.NewInMemoryDB(t)
	s := New(db)
	ctx := context.Background()
	mgr := testutil.SeedUser(t, db, "mgr@example.com", "password123", models.RoleManager)
	p := testutil.SeedProject(t, db, "Tower", mgr.ID)
	other := testutil.SeedProject(t, db, "Other", mgr.ID)
	var ids []uint
	for i := 0; i < 5; i++ {
		ids = append(ids, testutil.SeedDefect(t, db, fmt.Sprintf("d%d", i), p.ID, mgr.ID).ID)
	}
	testutil.SeedDefect(t, db, "elsewhere", other.ID, mgr.ID)

	first, err := s.Defects.ListByProject(ctx, p.ID, NewPage(2, 0))
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, ids[0], first[0].ID)
	require.Equal(t, ids[1], first[1].ID)

	second, err := s.Defects.ListByProject(ctx, p.ID, NewPage(2, 2))
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.Equal(t, ids[2], second[0].ID)
	require.Equal(t, ids[3], second[1].ID)

	all, err := s.Defects.List(ctx, NewPage(0, 0))
	require.NoError(t, err)
	require.Len(t, all, 6)

	none, err := s.Defects.ListByAssignee(ctx, mgr.ID, NewPage(0, 0))
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}

func TestDefectDelete_Cascades(t *testing.T) {
	db := testutil.NewInMemoryDB(t)
	s := New(db)
	ctx := context.Background()
	mgr := testutil.SeedUser(t, db, "mgr@example.com", "password123", models.RoleManager)
	p := testutil.SeedProject(t, db, "Tower", mgr.ID)
	d := testutil.SeedDefect(t, db, "Crack", p.ID, mgr.ID)
	keep := testutil.SeedDefect(t, db, "Other", p.ID, mgr.ID)

	c, err := s.Comments.Create(ctx, CommentInput{Text: "photo attached", DefectID: d.ID, AuthorID: mgr.ID})
	require.NoError(t, err)
	_, err = s.Attachments.Create(ctx, AttachmentInput{Filename: "a.jpg", Filepath: "/files/a.jpg", DefectID: d.ID})
	require.NoError(t, err)
	_, err = s.Attachments.Create(ctx, AttachmentInput{Filename: "b.jpg", Filepath: "/files/b.jpg", DefectID: d.ID, CommentID: &c.ID})
	require.NoError(t, err)
	kept, err := s.Attachments.Create(ctx, AttachmentInput{Filename: "c.jpg", Filepath: "/files/c.jpg", DefectID: keep.ID})
	require.NoError(t, err)

	ok, err := s.Defects.Delete(ctx, d.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = s.Comments.Get(ctx, c.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	remaining, err := s.Attachments.List(ctx, NewPage(0, 0))
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, kept.ID, remaining[0].ID)
}

func TestCommentDelete_RemovesOnlyItsAttachments(t *testing.T) {
	db := testutil.NewInMemoryDB(t)
	s := New(db)
	ctx := context.Background()
	mgr := testutil.SeedUser(t, db, "mgr@example.com", "password123", models.RoleManager)
	p := testutil.SeedProject(t, db, "Tower", mgr.ID)
	d := testutil.SeedDefect(t, db, "Crack", p.ID, mgr.ID)

	c, err := s.Comments.Create(ctx, CommentInput{Text: "see file", DefectID: d.ID, AuthorID: mgr.ID})
	require.NoError(t, err)
	onDefect, err := s.Attachments.Create(ctx, AttachmentInput{Filename: "a.pdf", Filepath: "/a.pdf", DefectID: d.ID})
	require.NoError(t, err)
	_, err = s.Attachments.Create(ctx, AttachmentInput{Filename: "b.pdf", Filepath: "/b.pdf", DefectID: d.ID, CommentID: &c.ID})
	require.NoError(t, err)

	ok, err := s.Comments.Delete(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, ok)

	left, err := s.Attachments.ListByDefect(ctx, d.ID, NewPage(0, 0))
	require.NoError(t, err)
	require.Len(t, left, 1)
	require.Equal(t, onDefect.ID, left[0].ID)
}

func TestCommentCreateAndUpdate(t *testing.T) {
	db := testutil.NewInMemoryDB(t)
	s := New(db)
	ctx := context.Background()
	mgr := testutil.SeedUser(t, db, "mgr@example.com", "password123", models.RoleManager)
	p := testutil.SeedProject(t, db, "Tower", mgr.ID)
	d := testutil.SeedDefect(t, db, "Crack", p.ID, mgr.ID)

	_, err := s.Comments.Create(ctx, CommentInput{Text: "  ", DefectID: d.ID, AuthorID: mgr.ID})
	require.ErrorIs(t, err, apperrors.ErrInvalid)
	_, err = s.Comments.Create(ctx, CommentInput{Text: "hi", DefectID: 555, AuthorID: mgr.ID})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	c, err := s.Comments.Create(ctx, CommentInput{Text: "first", DefectID: d.ID, AuthorID: mgr.ID})
	require.NoError(t, err)
	c, err = s.Comments.Update(ctx, c.ID, CommentPatch{Text: ptr("edited")})
	require.NoError(t, err)
	require.Equal(t, "edited", c.Text)

	byAuthor, err := s.Comments.ListByAuthor(ctx, mgr.ID, NewPage(0, 0))
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
}

func TestAttachmentCommentMustBelongToDefect(t *testing.T) {
	db := testutil.NewInMemoryDB(t)
	s := New(db)
	ctx := context.Background()
	mgr := testutil.SeedUser(t, db, "mgr@example.com", "password123", models.RoleManager)
	p := testutil.SeedProject(t, db, "Tower", mgr.ID)
	d1 := testutil.SeedDefect(t, db, "One", p.ID, mgr.ID)
	d2 := testutil.SeedDefect(t, db, "Two", p.ID, mgr.ID)
	c2, err := s.Comments.Create(ctx, CommentInput{Text: "on two", DefectID: d2.ID, AuthorID: mgr.ID})
	require.NoError(t, err)

	_, err = s.Attachments.Create(ctx, AttachmentInput{Filename: "x", Filepath: "/x", DefectID: d1.ID, CommentID: &c2.ID})
	require.ErrorIs(t, err, apperrors.ErrInvalid)

	a, err := s.Attachments.Create(ctx, AttachmentInput{Filename: "x", Filepath: "/x", DefectID: d2.ID, CommentID: &c2.ID})
	require.NoError(t, err)
	require.Equal(t, c2.ID, *a.CommentID)

	a, err = s.Attachments.Update(ctx, a.ID, AttachmentPatch{CommentID: ptr(uint(0))})
	require.NoError(t, err)
	require.Nil(t, a.CommentID)
	require.Equal(t, "x", a.Filename)
}

func TestDeleteMissingReturnsFalse(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	deletes := map[string]func(context.Context, uint) (bool, error){
		"user":       s.Users.Delete,
		"project":    s.Projects.Delete,
		"defect":     s.Defects.Delete,
		"comment":    s.Comments.Delete,
		"attachment": s.Attachments.Delete,
	}
	for name, del := range deletes {
		t.Run(name, func(t *testing.T) {
			ok, err := del(ctx, 12345)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestTransactionRollsBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := s.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.Users.Create(ctx, UserInput{Email: "tx@example.com", Password: "password123", Name: "T", Role: models.RoleReader}); err != nil {
			return err
		}
		return apperrors.Invalid("abort")
	})
	require.ErrorIs(t, err, apperrors.ErrInvalid)

	_, err = s.Users.GetByEmail(ctx, "tx@example.com")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetIsRepeatable(t *testing.T) {
	db := testutil.NewInMemoryDB(t)
	s := New(db)
	ctx := context.Background()
	mgr := testutil.SeedUser(t, db, "mgr@example.com", "password123", models.RoleManager)
	p := testutil.SeedProject(t, db, "Tower", mgr.ID)
	d := testutil.SeedDefect(t, db, "Crack", p.ID, mgr.ID)
	c, err := s.Comments.Create(ctx, CommentInput{Text: "see photo", DefectID: d.ID, AuthorID: mgr.ID})
	require.NoError(t, err)
	a, err := s.Attachments.Create(ctx, AttachmentInput{Filename: "crack.jpg", Filepath: "/files/crack.jpg", DefectID: d.ID, CommentID: &c.ID})
	require.NoError(t, err)

	twice := func(get func() (any, error)) {
		t.Helper()
		first, err := get()
		require.NoError(t, err)
		second, err := get()
		require.NoError(t, err)
		require.Equal(t, first, second)
	}
	twice(func() (any, error) { return s.Users.Get(ctx, mgr.ID) })
	twice(func() (any, error) { return s.Projects.Get(ctx, p.ID) })
	twice(func() (any, error) { return s.Defects.Get(ctx, d.ID) })
	twice(func() (any, error) { return s.Comments.Get(ctx, c.ID) })
	twice(func() (any, error) { return s.Attachments.Get(ctx, a.ID) })
}
