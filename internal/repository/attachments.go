package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/rise171/system-control-defects/internal/apperrors"
	"github.com/rise171/system-control-defects/internal/models"
)

// AttachmentInput records metadata for a file stored elsewhere.
type AttachmentInput struct {
	Filename    string `json:"filename" binding:"required,min=1,max=255"`
	Filepath    string `json:"filepath" binding:"required,min=1,max=1024"`
	ContentType string `json:"content_type" binding:"max=255"`
	DefectID    uint   `json:"defect_id" binding:"required"`
	CommentID   *uint  `json:"comment_id"`
}

// AttachmentPatch lists the attachment fields an update may change. A CommentID
// of zero detaches the attachment from its comment.
type AttachmentPatch struct {
	Filename    *string `json:"filename" binding:"omitempty,min=1,max=255"`
	Filepath    *string `json:"filepath" binding:"omitempty,min=1,max=1024"`
	ContentType *string `json:"content_type" binding:"omitempty,max=255"`
	CommentID   *uint   `json:"comment_id"`
}

type AttachmentRepository struct {
	db *gorm.DB
}

func (r *AttachmentRepository) List(ctx context.Context, page Page) ([]models.Attachment, error) {
	return listWhere[models.Attachment](ctx, r.db, "attachments", page, nil)
}

func (r *AttachmentRepository) ListByDefect(ctx context.Context, defectID uint, page Page) ([]models.Attachment, error) {
	return listWhere[models.Attachment](ctx, r.db, "attachments", page, "defect_id = ?", defectID)
}

func (r *AttachmentRepository) Get(ctx context.Context, id uint) (*models.Attachment, error) {
	return findByID[models.Attachment](ctx, r.db, "attachment", id)
}

func (r *AttachmentRepository) Create(ctx context.Context, in AttachmentInput) (*models.Attachment, error) {
	filename := strings.TrimSpace(in.Filename)
	filepath := strings.TrimSpace(in.Filepath)
	if filename == "" || filepath == "" {
		return nil, apperrors.Invalid("filename and filepath are required")
	}
	if err := mustExist(ctx, r.db, &models.Defect{}, "defect", in.DefectID); err != nil {
		return nil, err
	}

	var commentID *uint
	if in.CommentID != nil && *in.CommentID != 0 {
		if err := r.checkComment(ctx, *in.CommentID, in.DefectID); err != nil {
			return nil, err
		}
		id := *in.CommentID
		commentID = &id
	}

	a := models.Attachment{
		Filename:    filename,
		Filepath:    filepath,
		ContentType: strings.TrimSpace(in.ContentType),
		DefectID:    in.DefectID,
		CommentID:   commentID,
	}
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, writeErr("create", "attachment", err)
	}
	return r.Get(ctx, a.ID)
}

func (r *AttachmentRepository) Update(ctx context.Context, id uint, patch AttachmentPatch) (*models.Attachment, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.Filename != nil {
		name := strings.TrimSpace(*patch.Filename)
		if name == "" {
			return nil, apperrors.Invalid("filename must not be empty")
		}
		updates["filename"] = name
	}
	if patch.Filepath != nil {
		path := strings.TrimSpace(*patch.Filepath)
		if path == "" {
			return nil, apperrors.Invalid("filepath must not be empty")
		}
		updates["filepath"] = path
	}
	if patch.ContentType != nil {
		updates["content_type"] = strings.TrimSpace(*patch.ContentType)
	}
	if patch.CommentID != nil {
		if *patch.CommentID == 0 {
			updates["comment_id"] = gorm.Expr("NULL")
		} else {
			if err := r.checkComment(ctx, *patch.CommentID, current.DefectID); err != nil {
				return nil, err
			}
			updates["comment_id"] = *patch.CommentID
		}
	}

	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(current).Updates(updates).Error; err != nil {
			return nil, writeErr("update", "attachment", err)
		}
	}
	return r.Get(ctx, id)
}

func (r *AttachmentRepository) Delete(ctx context.Context, id uint) (bool, error) {
	if _, err := r.Get(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	res := r.db.WithContext(ctx).Delete(&models.Attachment{}, id)
	if res.Error != nil {
		return false, writeErr("delete", "attachment", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// checkComment requires commentID to exist and to belong to defectID.
func (r *AttachmentRepository) checkComment(ctx context.Context, commentID, defectID uint) error {
	c, err := findByID[models.Comment](ctx, r.db, "comment", commentID)
	if err != nil {
		return err
	}
	if c.DefectID != defectID {
		return apperrors.Invalid("comment %d belongs to defect %d, not defect %d", commentID, c.DefectID, defectID)
	}
	return nil
}
