package service

import (
	"context"

	"github.com/rise171/system-control-defects/internal/models"
	"github.com/rise171/system-control-defects/internal/policy"
	"github.com/rise171/system-control-defects/internal/realtime"
	"github.com/rise171/system-control-defects/internal/repository"
)

type Comments struct {
	base
}

func (s *Comments) List(ctx context.Context, actor *policy.Actor, page repository.Page) ([]models.Comment, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindComment}); err != nil {
		return nil, err
	}
	comments, err := s.store.Comments.List(ctx, page)
	return comments, s.fail("list comments", err)
}

func (s *Comments) ListByDefect(ctx context.Context, actor *policy.Actor, defectID uint, page repository.Page) ([]models.Comment, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindComment}); err != nil {
		return nil, err
	}
	comments, err := s.store.Comments.ListByDefect(ctx, defectID, page)
	return comments, s.fail("list defect comments", err)
}

func (s *Comments) ListByAuthor(ctx context.Context, actor *policy.Actor, authorID uint, page repository.Page) ([]models.Comment, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindComment}); err != nil {
		return nil, err
	}
	comments, err := s.store.Comments.ListByAuthor(ctx, authorID, page)
	return comments, s.fail("list user comments", err)
}

func (s *Comments) Get(ctx context.Context, actor *policy.Actor, id uint) (*models.Comment, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindComment, ID: id}); err != nil {
		return nil, err
	}
	c, err := s.store.Comments.Get(ctx, id)
	return c, s.fail("get comment", err)
}

// Create posts a comment authored by actor.
func (s *Comments) Create(ctx context.Context, actor *policy.Actor, in repository.CommentInput) (*models.Comment, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.ActionCreate, policy.Resource{Kind: policy.KindComment}); err != nil {
		return nil, err
	}
	in.AuthorID = actor.UserID

	var (
		created    *models.Comment
		recipients []uint
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		c, err := tx.Comments.Create(ctx, in)
		if err != nil {
			return err
		}
		created = c
		recipients, err = defectStakeholders(ctx, tx, c.DefectID)
		return err
	})
	if err != nil {
		return nil, s.fail("create comment", err)
	}

	s.notifier.Publish(recipients, realtime.Event{
		Type: realtime.CommentCreated, DefectID: created.DefectID, EntityID: created.ID, ActorID: actor.UserID, Data: created,
	})
	s.done("create comment", "comment_id", created.ID, "defect_id", created.DefectID, "actor_id", actor.UserID)
	return created, nil
}

func (s *Comments) Update(ctx context.Context, actor *policy.Actor, id uint, patch repository.CommentPatch) (*models.Comment, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}

	var updated *models.Comment
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Comments.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(actor, policy.ActionUpdate, policy.Resource{Kind: policy.KindComment, ID: id, OwnerID: current.AuthorID}); err != nil {
			return err
		}
		updated, err = tx.Comments.Update(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, s.fail("update comment", err)
	}
	s.done("update comment", "comment_id", id, "actor_id", actor.UserID)
	return updated, nil
}

// Delete removes the comment and the attachments tied to it.
func (s *Comments) Delete(ctx context.Context, actor *policy.Actor, id uint) (bool, error) {
	if err := s.requireActor(actor); err != nil {
		return false, err
	}

	var (
		deleted    bool
		defectID   uint
		recipients []uint
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Comments.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(actor, policy.ActionDelete, policy.Resource{Kind: policy.KindComment, ID: id, OwnerID: current.AuthorID}); err != nil {
			return err
		}
		defectID = current.DefectID
		if recipients, err = defectStakeholders(ctx, tx, defectID); err != nil {
			return err
		}
		deleted, err = tx.Comments.Delete(ctx, id)
		return err
	})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, s.fail("delete comment", err)
	}

	if deleted {
		s.notifier.Publish(recipients, realtime.Event{
			Type: realtime.CommentDeleted, DefectID: defectID, EntityID: id, ActorID: actor.UserID,
		})
	}
	s.done("delete comment", "comment_id", id, "actor_id", actor.UserID)
	return deleted, nil
}

func defectStakeholders(ctx context.Context, tx *repository.Store, defectID uint) ([]uint, error) {
	d, err := tx.Defects.Get(ctx, defectID)
	if err != nil {
		return nil, err
	}
	return stakeholders(ctx, tx, d)
}
