package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/rise171/system-control-defects/internal/apperrors"
	"github.com/rise171/system-control-defects/internal/models"
)

// CommentInput creates a comment. AuthorID is filled from the authenticated actor.
type CommentInput struct {
	Text     string `json:"text" binding:"required,min=1"`
	DefectID uint   `json:"defect_id" binding:"required"`
	AuthorID uint   `json:"-"`
}

type CommentPatch struct {
	Text *string `json:"text" binding:"omitempty,min=1"`
}

type CommentRepository struct {
	db *gorm.DB
}

func (r *CommentRepository) List(ctx context.Context, page Page) ([]models.Comment, error) {
	return listWhere[models.Comment](ctx, r.db, "comments", page, nil)
}

func (r *CommentRepository) ListByDefect(ctx context.Context, defectID uint, page Page) ([]models.Comment, error) {
	return listWhere[models.Comment](ctx, r.db, "comments", page, "defect_id = ?", defectID)
}

func (r *CommentRepository) ListByAuthor(ctx context.Context, authorID uint, page Page) ([]models.Comment, error) {
	return listWhere[models.Comment](ctx, r.db, "comments", page, "author_id = ?", authorID)
}

func (r *CommentRepository) Get(ctx context.Context, id uint) (*models.Comment, error) {
	return findByID[models.Comment](ctx, r.db, "comment", id)
}

func (r *CommentRepository) Create(ctx context.Context, in CommentInput) (*models.Comment, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, apperrors.Invalid("comment text is required")
	}
	if err := mustExist(ctx, r.db, &models.Defect{}, "defect", in.DefectID); err != nil {
		return nil, err
	}
	if err := mustExist(ctx, r.db, &models.User{}, "user", in.AuthorID); err != nil {
		return nil, err
	}

	c := models.Comment{Text: text, DefectID: in.DefectID, AuthorID: in.AuthorID}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, writeErr("create", "comment", err)
	}
	return r.Get(ctx, c.ID)
}

func (r *CommentRepository) Update(ctx context.Context, id uint, patch CommentPatch) (*models.Comment, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Text == nil {
		return current, nil
	}

	text := strings.TrimSpace(*patch.Text)
	if text == "" {
		return nil, apperrors.Invalid("comment text must not be empty")
	}
	if err := r.db.WithContext(ctx).Model(current).Update("text", text).Error; err != nil {
		return nil, writeErr("update", "comment", err)
	}
	return r.Get(ctx, id)
}

// Delete removes the comment and the attachments bound to it. Attachments that
// belong only to the defect are kept.
func (r *CommentRepository) Delete(ctx context.Context, id uint) (bool, error) {
	if _, err := r.Get(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	db := r.db.WithContext(ctx)
	if err := db.Where("comment_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
		return false, fmt.Errorf("delete comment attachments: %w", err)
	}
	res := db.Delete(&models.Comment{}, id)
	if res.Error != nil {
		return false, writeErr("delete", "comment", res.Error)
	}
	return res.RowsAffected > 0, nil
}
