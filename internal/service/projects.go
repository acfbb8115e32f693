package service

import (
	"context"

	"github.com/rise171/system-control-defects/internal/models"
	"github.com/rise171/system-control-defects/internal/policy"
	"github.com/rise171/system-control-defects/internal/repository"
)

type Projects struct {
	base
}

func (s *Projects) List(ctx context.Context, actor *policy.Actor, page repository.Page) ([]models.Project, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindProject}); err != nil {
		return nil, err
	}
	projects, err := s.store.Projects.List(ctx, page)
	return projects, s.fail("list projects", err)
}

func (s *Projects) Get(ctx context.Context, actor *policy.Actor, id uint) (*models.Project, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindProject, ID: id}); err != nil {
		return nil, err
	}
	p, err := s.store.Projects.Get(ctx, id)
	return p, s.fail("get project", err)
}

func (s *Projects) Create(ctx context.Context, actor *policy.Actor, in repository.ProjectInput) (*models.Project, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.ActionCreate, policy.Resource{Kind: policy.KindProject}); err != nil {
		return nil, err
	}

	var created *models.Project
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := tx.Projects.Create(ctx, in)
		created = p
		return err
	})
	if err != nil {
		return nil, s.fail("create project", err)
	}
	s.done("create project", "project_id", created.ID, "manager_id", created.ManagerID, "actor_id", actor.UserID)
	return created, nil
}

func (s *Projects) Update(ctx context.Context, actor *policy.Actor, id uint, patch repository.ProjectPatch) (*models.Project, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}

	var updated *models.Project
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Projects.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(actor, policy.ActionUpdate, policy.Resource{Kind: policy.KindProject, ID: id, OwnerID: current.ManagerID}); err != nil {
			return err
		}
		updated, err = tx.Projects.Update(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, s.fail("update project", err)
	}
	s.done("update project", "project_id", id, "actor_id", actor.UserID)
	return updated, nil
}

func (s *Projects) Delete(ctx context.Context, actor *policy.Actor, id uint) (bool, error) {
	if err := s.requireActor(actor); err != nil {
		return false, err
	}

	var deleted bool
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Projects.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(actor, policy.ActionDelete, policy.Resource{Kind: policy.KindProject, ID: id, OwnerID: current.ManagerID}); err != nil {
			return err
		}
		deleted, err = tx.Projects.Delete(ctx, id)
		return err
	})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, s.fail("delete project", err)
	}
	s.done("delete project", "project_id", id, "actor_id", actor.UserID)
	return deleted, nil
}
