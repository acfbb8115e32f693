package service

import (
	"context"

	"github.com/rise171/system-control-defects/internal/models"
	"github.com/rise171/system-control-defects/internal/policy"
	"github.com/rise171/system-control-defects/internal/realtime"
	"github.com/rise171/system-control-defects/internal/repository"
)

type Defects struct {
	base
}

func (s *Defects) List(ctx context.Context, actor *policy.Actor, page repository.Page) ([]models.Defect, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindDefect}); err != nil {
		return nil, err
	}
	defects, err := s.store.Defects.List(ctx, page)
	return defects, s.fail("list defects", err)
}

func (s *Defects) ListByProject(ctx context.Context, actor *policy.Actor, projectID uint, page repository.Page) ([]models.Defect, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindDefect}); err != nil {
		return nil, err
	}
	defects, err := s.store.Defects.ListByProject(ctx, projectID, page)
	return defects, s.fail("list project defects", err)
}

// ListByAssignee returns the defects assigned to userID.
func (s *Defects) ListByAssignee(ctx context.Context, actor *policy.Actor, userID uint, page repository.Page) ([]models.Defect, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindDefect}); err != nil {
		return nil, err
	}
	defects, err := s.store.Defects.ListByAssignee(ctx, userID, page)
	return defects, s.fail("list assigned defects", err)
}

func (s *Defects) Get(ctx context.Context, actor *policy.Actor, id uint) (*models.Defect, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindDefect, ID: id}); err != nil {
		return nil, err
	}
	d, err := s.store.Defects.Get(ctx, id)
	return d, s.fail("get defect", err)
}

// Create files a defect on behalf of actor, who becomes its creator.
func (s *Defects) Create(ctx context.Context, actor *policy.Actor, in repository.DefectInput) (*models.Defect, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.ActionCreate, policy.Resource{Kind: policy.KindDefect}); err != nil {
		return nil, err
	}
	in.CreatedByID = actor.UserID

	var (
		created    *models.Defect
		recipients []uint
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		d, err := tx.Defects.Create(ctx, in)
		if err != nil {
			return err
		}
		created = d
		recipients, err = stakeholders(ctx, tx, d)
		return err
	})
	if err != nil {
		return nil, s.fail("create defect", err)
	}

	s.notifier.Publish(recipients, realtime.Event{
		Type: realtime.DefectCreated, DefectID: created.ID, EntityID: created.ID, ActorID: actor.UserID, Data: created,
	})
	s.done("create defect", "defect_id", created.ID, "project_id", created.ProjectID, "actor_id", actor.UserID)
	return created, nil
}

func (s *Defects) Update(ctx context.Context, actor *policy.Actor, id uint, patch repository.DefectPatch) (*models.Defect, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}

	var (
		updated    *models.Defect
		recipients []uint
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Defects.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(actor, policy.ActionUpdate, policy.Resource{Kind: policy.KindDefect, ID: id, OwnerID: current.CreatedByID}); err != nil {
			return err
		}
		updated, err = tx.Defects.Update(ctx, id, patch)
		if err != nil {
			return err
		}
		// a previous assignee still hears about the change that unassigned them
		recipients, err = stakeholders(ctx, tx, updated)
		recipients = append(recipients, current.Watchers()...)
		return err
	})
	if err != nil {
		return nil, s.fail("update defect", err)
	}

	s.notifier.Publish(recipients, realtime.Event{
		Type: realtime.DefectUpdated, DefectID: id, EntityID: id, ActorID: actor.UserID, Data: updated,
	})
	s.done("update defect", "defect_id", id, "status", string(updated.Status), "actor_id", actor.UserID)
	return updated, nil
}

// Delete removes the defect with its comments and attachments.
func (s *Defects) Delete(ctx context.Context, actor *policy.Actor, id uint) (bool, error) {
	if err := s.requireActor(actor); err != nil {
		return false, err
	}

	var (
		deleted    bool
		recipients []uint
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Defects.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(actor, policy.ActionDelete, policy.Resource{Kind: policy.KindDefect, ID: id, OwnerID: current.CreatedByID}); err != nil {
			return err
		}
		if recipients, err = stakeholders(ctx, tx, current); err != nil {
			return err
		}
		deleted, err = tx.Defects.Delete(ctx, id)
		return err
	})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, s.fail("delete defect", err)
	}

	if deleted {
		s.notifier.Publish(recipients, realtime.Event{
			Type: realtime.DefectDeleted, DefectID: id, EntityID: id, ActorID: actor.UserID,
		})
	}
	s.done("delete defect", "defect_id", id, "actor_id", actor.UserID)
	return deleted, nil
}

// stakeholders lists who hears about activity on d: its creator, its assignee
// and the manager of its project.
func stakeholders(ctx context.Context, tx *repository.Store, d *models.Defect) ([]uint, error) {
	p, err := tx.Projects.Get(ctx, d.ProjectID)
	if err != nil {
		return nil, err
	}
	return append(d.Watchers(), p.ManagerID), nil
}
