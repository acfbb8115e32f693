package service

import (
	"context"

	"github.com/rise171/system-control-defects/internal/models"
	"github.com/rise171/system-control-defects/internal/policy"
	"github.com/rise171/system-control-defects/internal/repository"
)

type Users struct {
	base
	sessions *Sessions
}

func (s *Users) List(ctx context.Context, actor *policy.Actor, page repository.Page) ([]models.User, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindUser}); err != nil {
		return nil, err
	}
	users, err := s.store.Users.List(ctx, page)
	return users, s.fail("list users", err)
}

func (s *Users) Get(ctx context.Context, actor *policy.Actor, id uint) (*models.User, error) {
	if err := s.authorize(actor, policy.ActionRead, policy.Resource{Kind: policy.KindUser, ID: id}); err != nil {
		return nil, err
	}
	u, err := s.store.Users.Get(ctx, id)
	return u, s.fail("get user", err)
}

// Create adds a user. A nil actor is a self-registration.
func (s *Users) Create(ctx context.Context, actor *policy.Actor, in repository.UserInput) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.ActionCreate, policy.Resource{Kind: policy.KindUser, Role: in.Role}); err != nil {
		return nil, err
	}

	var created *models.User
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		u, err := tx.Users.Create(ctx, in)
		created = u
		return err
	})
	if err != nil {
		return nil, s.fail("create user", err)
	}
	s.done("create user", "user_id", created.ID, "role", string(created.Role))
	return created, nil
}

func (s *Users) Update(ctx context.Context, actor *policy.Actor, id uint, patch repository.UserPatch) (*models.User, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}

	var updated *models.User
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Users.Get(ctx, id)
		if err != nil {
			return err
		}
		res := policy.Resource{Kind: policy.KindUser, ID: id, OwnerID: id}
		if patch.Role != nil {
			res.Role = *patch.Role
			res.RoleChange = *patch.Role != current.Role
		}
		if err := s.authorize(actor, policy.ActionUpdate, res); err != nil {
			return err
		}
		updated, err = tx.Users.Update(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, s.fail("update user", err)
	}
	s.sessions.Forget(id)
	s.done("update user", "user_id", id, "actor_id", actor.UserID)
	return updated, nil
}

// Delete reports false when the user does not exist.
func (s *Users) Delete(ctx context.Context, actor *policy.Actor, id uint) (bool, error) {
	if err := s.requireActor(actor); err != nil {
		return false, err
	}

	var deleted bool
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.Get(ctx, id); err != nil {
			return err
		}
		if err := s.authorize(actor, policy.ActionDelete, policy.Resource{Kind: policy.KindUser, ID: id, OwnerID: id}); err != nil {
			return err
		}
		var err error
		deleted, err = tx.Users.Delete(ctx, id)
		return err
	})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, s.fail("delete user", err)
	}
	s.sessions.Forget(id)
	s.done("delete user", "user_id", id, "actor_id", actor.UserID)
	return deleted, nil
}
