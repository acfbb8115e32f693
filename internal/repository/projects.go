package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rise171/system-control-defects/internal/apperrors"
	"github.com/rise171/system-control-defects/internal/models"
)

// ProjectInput is the writable field set for creating a project.
type ProjectInput struct {
	Name        string     `json:"name" binding:"required,min=1,max=255"`
	Description string     `json:"description"`
	Address     string     `json:"address" binding:"max=500"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsActive    *bool      `json:"is_active"`
	ManagerID   uint       `json:"manager_id" binding:"required"`
}

// ProjectPatch lists the project fields an update may change.
type ProjectPatch struct {
	Name        *string    `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string    `json:"description"`
	Address     *string    `json:"address" binding:"omitempty,max=500"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsActive    *bool      `json:"is_active"`
	ManagerID   *uint      `json:"manager_id" binding:"omitempty,min=1"`
}

type ProjectRepository struct {
	db *gorm.DB
}

func (r *ProjectRepository) List(ctx context.Context, page Page) ([]models.Project, error) {
	return listWhere[models.Project](ctx, r.db, "projects", page, nil)
}

func (r *ProjectRepository) Get(ctx context.Context, id uint) (*models.Project, error) {
	return findByID[models.Project](ctx, r.db, "project", id)
}

func (r *ProjectRepository) Create(ctx context.Context, in ProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Invalid("project name is required")
	}
	if err := checkDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}
	if err := r.checkManager(ctx, in.ManagerID); err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	p := models.Project{
		Name:        name,
		Description: in.Description,
		Address:     in.Address,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		IsActive:    active,
		ManagerID:   in.ManagerID,
	}
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, writeErr("create", "project", err)
	}
	return r.Get(ctx, p.ID)
}

func (r *ProjectRepository) Update(ctx context.Context, id uint, patch ProjectPatch) (*models.Project, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.Invalid("project name must not be empty")
		}
		updates["name"] = name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Address != nil {
		updates["address"] = *patch.Address
	}
	start, end := current.StartDate, current.EndDate
	if patch.StartDate != nil {
		start = patch.StartDate
		updates["start_date"] = patch.StartDate
	}
	if patch.EndDate != nil {
		end = patch.EndDate
		updates["end_date"] = patch.EndDate
	}
	if err := checkDates(start, end); err != nil {
		return nil, err
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.ManagerID != nil && *patch.ManagerID != current.ManagerID {
		if err := r.checkManager(ctx, *patch.ManagerID); err != nil {
			return nil, err
		}
		updates["manager_id"] = *patch.ManagerID
	}

	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(current).Updates(updates).Error; err != nil {
			return nil, writeErr("update", "project", err)
		}
	}
	return r.Get(ctx, id)
}

// Delete removes a project that has no defects. Projects with defects are a Conflict.
func (r *ProjectRepository) Delete(ctx context.Context, id uint) (bool, error) {
	if _, err := r.Get(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	n, err := countWhere(ctx, r.db, &models.Defect{}, "project_id = ?", id)
	if err != nil {
		return false, fmt.Errorf("count project defects: %w", err)
	}
	if n > 0 {
		return false, apperrors.Conflict("project %d still has %d defect(s)", id, n)
	}

	res := r.db.WithContext(ctx).Delete(&models.Project{}, id)
	if res.Error != nil {
		return false, writeErr("delete", "project", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// checkManager requires managerID to be an existing admin or manager.
func (r *ProjectRepository) checkManager(ctx context.Context, managerID uint) error {
	if managerID == 0 {
		return apperrors.Invalid("manager_id is required")
	}
	manager, err := findByID[models.User](ctx, r.db, "user", managerID)
	if err != nil {
		return err
	}
	if !manager.Role.CanManageProjects() {
		return apperrors.Invalid("user %d has role %s; a project manager must be an admin or manager", managerID, manager.Role)
	}
	return nil
}

func checkDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return apperrors.Invalid("end_date must not be before start_date")
	}
	return nil
}
