package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/rise171/system-control-defects/internal/apperrors"
	"github.com/rise171/system-control-defects/internal/auth"
	"github.com/rise171/system-control-defects/internal/models"
)

// UserInput is the writable field set for creating a user.
type UserInput struct {
	Email    string      `json:"email" binding:"required,email,max=254"`
	Password string      `json:"password" binding:"required,min=8,max=72"`
	Name     string      `json:"name" binding:"required,min=1,max=200"`
	Role     models.Role `json:"role" binding:"required,oneof=admin manager engineer reader"`
}

// UserPatch lists the user fields an update may change; nil fields are left alone.
type UserPatch struct {
	Email    *string      `json:"email" binding:"omitempty,email,max=254"`
	Password *string      `json:"password" binding:"omitempty,min=8,max=72"`
	Name     *string      `json:"name" binding:"omitempty,min=1,max=200"`
	Role     *models.Role `json:"role" binding:"omitempty,oneof=admin manager engineer reader"`
}

type UserRepository struct {
	db *gorm.DB
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepository) List(ctx context.Context, page Page) ([]models.User, error) {
	return listWhere[models.User](ctx, r.db, "users", page, nil)
}

func (r *UserRepository) Get(ctx context.Context, id uint) (*models.User, error) {
	return findByID[models.User](ctx, r.db, "user", id)
}

// GetByEmail looks a user up case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user with email %s", apperrors.ErrNotFound, NormalizeEmail(email))
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// Create hashes the password and inserts the user. A taken email is a Conflict.
func (r *UserRepository) Create(ctx context.Context, in UserInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	switch {
	case email == "":
		return nil, apperrors.Invalid("email is required")
	case name == "":
		return nil, apperrors.Invalid("name is required")
	case in.Password == "":
		return nil, apperrors.Invalid("password is required")
	case !in.Role.Valid():
		return nil, apperrors.Invalid("unknown role %q", in.Role)
	}
	if err := r.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.Invalid("password cannot be hashed: %v", err)
	}

	u := models.User{Email: email, PasswordHash: hash, Name: name, Role: in.Role}
	if err := r.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, writeErr("create", "user", err)
	}
	return r.Get(ctx, u.ID)
}

// Update applies only the supplied fields. A new password is re-hashed; demoting
// a user who still manages projects is a Conflict.
func (r *UserRepository) Update(ctx context.Context, id uint, patch UserPatch) (*models.User, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		if email == "" {
			return nil, apperrors.Invalid("email must not be empty")
		}
		if email != current.Email {
			if err := r.ensureEmailFree(ctx, email, id); err != nil {
				return nil, err
			}
			updates["email"] = email
		}
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.Invalid("name must not be empty")
		}
		updates["name"] = name
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			return nil, apperrors.Invalid("password must not be empty")
		}
		hash, err := auth.HashPassword(*patch.Password)
		if err != nil {
			return nil, apperrors.Invalid("password cannot be hashed: %v", err)
		}
		updates["password_hash"] = hash
	}
	if patch.Role != nil && *patch.Role != current.Role {
		if !patch.Role.Valid() {
			return nil, apperrors.Invalid("unknown role %q", *patch.Role)
		}
		if !patch.Role.CanManageProjects() {
			managed, err := countWhere(ctx, r.db, &models.Project{}, "manager_id = ?", id)
			if err != nil {
				return nil, fmt.Errorf("count managed projects: %w", err)
			}
			if managed > 0 {
				return nil, apperrors.Conflict("user %d manages %d project(s); reassign them before changing role to %s", id, managed, *patch.Role)
			}
		}
		updates["role"] = *patch.Role
	}

	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(current).Updates(updates).Error; err != nil {
			return nil, writeErr("update", "user", err)
		}
	}
	return r.Get(ctx, id)
}

// Delete removes an unreferenced user. It returns false when the user does not
// exist and a Conflict while projects, defects or comments still point at it.
func (r *UserRepository) Delete(ctx context.Context, id uint) (bool, error) {
	if _, err := r.Get(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	refs := []struct {
		model any
		what  string
		query string
	}{
		{&models.Project{}, "manages projects", "manager_id = ?"},
		{&models.Defect{}, "created defects", "created_by_id = ?"},
		{&models.Defect{}, "is assigned defects", "assigned_to_id = ?"},
		{&models.Comment{}, "authored comments", "author_id = ?"},
	}
	for _, ref := range refs {
		n, err := countWhere(ctx, r.db, ref.model, ref.query, id)
		if err != nil {
			return false, fmt.Errorf("check user references: %w", err)
		}
		if n > 0 {
			return false, apperrors.Conflict("user %d %s and cannot be deleted", id, ref.what)
		}
	}

	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return false, writeErr("delete", "user", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *UserRepository) ensureEmailFree(ctx context.Context, email string, exceptID uint) error {
	n, err := countWhere(ctx, r.db, &models.User{}, "email = ? AND id <> ?", email, exceptID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if n > 0 {
		return apperrors.Conflict("email %s is already registered", email)
	}
	return nil
}
