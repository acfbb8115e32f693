package service

import (
	"context"

	"github.com/rise171/system-control-defects/internal/models"
	"github.com/rise171/system-control-defects/internal/policy"
	"github.com/rise171/system-control-defects/internal/realtime"
	"github.com/rise171/system-control-defects/internal/repository"
)

type Attachments struct {
	base
}

func (s *Attachments) List(ctx context.Context, actor *policy.Actor, page repository.Page) ([]models.Attachment, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindAttachment}); err != nil {
		return nil, err
	}
	out, err := s.store.Attachments.List(ctx, page)
	return out, s.fail("list attachments", err)
}

func (s *Attachments) ListByDefect(ctx context.Context, actor *policy.Actor, defectID uint, page repository.Page) ([]models.Attachment, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindAttachment}); err != nil {
		return nil, err
	}
	out, err := s.store.Attachments.ListByDefect(ctx, defectID, page)
	return out, s.fail("list defect attachments", err)
}

func (s *Attachments) Get(ctx context.Context, actor *policy.Actor, id uint) (*models.Attachment, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindAttachment, ID: id}); err != nil {
		return nil, err
	}
	a, err := s.store.Attachments.Get(ctx, id)
	return a, s.fail("get attachment", err)
}

func (s *Attachments) Create(ctx context.Context, actor *policy.Actor, in repository.AttachmentInput) (*models.Attachment, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.ActionCreate, policy.Resource{Kind: policy.KindAttachment}); err != nil {
		return nil, err
	}

	var (
		created    *models.Attachment
		recipients []uint
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		a, err := tx.Attachments.Create(ctx, in)
		if err != nil {
			return err
		}
		created = a
		recipients, err = defectStakeholders(ctx, tx, a.DefectID)
		return err
	})
	if err != nil {
		return nil, s.fail("create attachment", err)
	}

	s.notifier.Publish(recipients, realtime.Event{
		Type: realtime.AttachmentCreated, DefectID: created.DefectID, EntityID: created.ID, ActorID: actor.UserID, Data: created,
	})
	s.done("create attachment", "attachment_id", created.ID, "defect_id", created.DefectID, "actor_id", actor.UserID)
	return created, nil
}

func (s *Attachments) Update(ctx context.Context, actor *policy.Actor, id uint, patch repository.AttachmentPatch) (*models.Attachment, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.ActionUpdate, policy.Resource{Kind: policy.KindAttachment, ID: id}); err != nil {
		return nil, err
	}

	var updated *models.Attachment
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		a, err := tx.Attachments.Update(ctx, id, patch)
		updated = a
		return err
	})
	if err != nil {
		return nil, s.fail("update attachment", err)
	}
	s.done("update attachment", "attachment_id", id, "actor_id", actor.UserID)
	return updated, nil
}

func (s *Attachments) Delete(ctx context.Context, actor *policy.Actor, id uint) (bool, error) {
	if err := s.authorize(actor, policy.ActionDelete, policy.Resource{Kind: policy.KindAttachment, ID: id}); err != nil {
		return false, err
	}

	var deleted bool
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		deleted, err = tx.Attachments.Delete(ctx, id)
		return err
	})
	if err != nil {
		return false, s.fail("delete attachment", err)
	}
	s.done("delete attachment", "attachment_id", id, "actor_id", actor.UserID)
	return deleted, nil
}
