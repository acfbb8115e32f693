package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/rise171/system-control-defects/internal/apperrors"
	"github.com/rise171/system-control-defects/internal/models"
)

// DefectInput is the writable field set for creating a defect. CreatedByID is
// always the authenticated actor and never comes from the request body.
type DefectInput struct {
	Title        string                `json:"title" binding:"required,min=1,max=500"`
	Description  string                `json:"description"`
	Status       models.DefectStatus   `json:"status" binding:"omitempty,oneof=new in_progress under_review closed cancelled"`
	Priority     models.DefectPriority `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	DueDate      *time.Time            `json:"due_date"`
	ProjectID    uint                  `json:"project_id" binding:"required"`
	AssignedToID *uint                 `json:"assigned_to_id"`
	CreatedByID  uint                  `json:"-"`
}

// DefectPatch lists the defect fields an update may change. An AssignedToID of
// zero unassigns the defect. The project of a defect never changes.
type DefectPatch struct {
	Title        *string                `json:"title" binding:"omitempty,min=1,max=500"`
	Description  *string                `json:"description"`
	Status       *models.DefectStatus   `json:"status" binding:"omitempty,oneof=new in_progress under_review closed cancelled"`
	Priority     *models.DefectPriority `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	DueDate      *time.Time             `json:"due_date"`
	AssignedToID *uint                  `json:"assigned_to_id"`
}

type DefectRepository struct {
	db *gorm.DB
}

func (r *DefectRepository) List(ctx context.Context, page Page) ([]models.Defect, error) {
	return listWhere[models.Defect](ctx, r.db, "defects", page, nil)
}

func (r *DefectRepository) ListByProject(ctx context.Context, projectID uint, page Page) ([]models.Defect, error) {
	return listWhere[models.Defect](ctx, r.db, "defects", page, "project_id = ?", projectID)
}

// ListByAssignee returns the defects currently assigned to userID.
func (r *DefectRepository) ListByAssignee(ctx context.Context, userID uint, page Page) ([]models.Defect, error) {
	return listWhere[models.Defect](ctx, r.db, "defects", page, "assigned_to_id = ?", userID)
}

func (r *DefectRepository) Get(ctx context.Context, id uint) (*models.Defect, error) {
	return findByID[models.Defect](ctx, r.db, "defect", id)
}

func (r *DefectRepository) Create(ctx context.Context, in DefectInput) (*models.Defect, error) {
	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.StatusNew
	}
	if !status.Valid() {
		return nil, apperrors.Invalid("unknown status %q", status)
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.Invalid("unknown priority %q", priority)
	}

	if err := mustExist(ctx, r.db, &models.Project{}, "project", in.ProjectID); err != nil {
		return nil, err
	}
	if err := mustExist(ctx, r.db, &models.User{}, "user", in.CreatedByID); err != nil {
		return nil, err
	}
	var assignee *uint
	if in.AssignedToID != nil && *in.AssignedToID != 0 {
		if err := mustExist(ctx, r.db, &models.User{}, "user", *in.AssignedToID); err != nil {
			return nil, err
		}
		id := *in.AssignedToID
		assignee = &id
	}

	d := models.Defect{
		Title:        title,
		Description:  in.Description,
		Status:       status,
		Priority:     priority,
		DueDate:      in.DueDate,
		ProjectID:    in.ProjectID,
		CreatedByID:  in.CreatedByID,
		AssignedToID: assignee,
	}
	if err := r.db.WithContext(ctx).Create(&d).Error; err != nil {
		return nil, writeErr("create", "defect", err)
	}
	return r.Get(ctx, d.ID)
}

func (r *DefectRepository) Update(ctx context.Context, id uint, patch DefectPatch) (*models.Defect, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.Title != nil {
		title, err := cleanTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, apperrors.Invalid("unknown status %q", *patch.Status)
		}
		updates["status"] = *patch.Status
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, apperrors.Invalid("unknown priority %q", *patch.Priority)
		}
		updates["priority"] = *patch.Priority
	}
	if patch.DueDate != nil {
		updates["due_date"] = patch.DueDate
	}
	if patch.AssignedToID != nil {
		if *patch.AssignedToID == 0 {
			updates["assigned_to_id"] = gorm.Expr("NULL")
		} else {
			if err := mustExist(ctx, r.db, &models.User{}, "user", *patch.AssignedToID); err != nil {
				return nil, err
			}
			updates["assigned_to_id"] = *patch.AssignedToID
		}
	}

	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(current).Updates(updates).Error; err != nil {
			return nil, writeErr("update", "defect", err)
		}
	}
	return r.Get(ctx, id)
}

// Delete removes the defect together with its comments and every attachment
// bound to the defect or to one of those comments.
func (r *DefectRepository) Delete(ctx context.Context, id uint) (bool, error) {
	if _, err := r.Get(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	db := r.db.WithContext(ctx)
	comments := db.Model(&models.Comment{}).Select("id").Where("defect_id = ?", id)
	if err := db.Where("defect_id = ? OR comment_id IN (?)", id, comments).Delete(&models.Attachment{}).Error; err != nil {
		return false, fmt.Errorf("delete defect attachments: %w", err)
	}
	if err := db.Where("defect_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return false, fmt.Errorf("delete defect comments: %w", err)
	}

	res := db.Delete(&models.Defect{}, id)
	if res.Error != nil {
		return false, writeErr("delete", "defect", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func cleanTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", apperrors.Invalid("defect title is required")
	}
	if utf8.RuneCountInString(title) > models.MaxDefectTitle {
		return "", apperrors.Invalid("defect title exceeds %d characters", models.MaxDefectTitle)
	}
	return title, nil
}
