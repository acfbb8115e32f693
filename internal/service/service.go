// Package service runs each use case end to end: validate the input, ask the
// policy, do the work inside one repository transaction and publish a realtime
// event once the transaction has committed.
package service

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/rise171/system-control-defects/internal/apperrors"
	"github.com/rise171/system-control-defects/internal/auth"
	"github.com/rise171/system-control-defects/internal/models"
	"github.com/rise171/system-control-defects/internal/policy"
	"github.com/rise171/system-control-defects/internal/realtime"
	"github.com/rise171/system-control-defects/internal/repository"
)

// Notifier receives events after a successful commit.
type Notifier interface {
	Publish(userIDs []uint, ev realtime.Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish([]uint, realtime.Event) {}

type Deps struct {
	Store      *repository.Store
	Policy     *policy.Policy
	Tokens     *auth.Tokens
	Notifier   Notifier
	Logger     *slog.Logger
	SessionTTL time.Duration
}

// Services is the full set of use cases the HTTP layer talks to.
type Services struct {
	Auth        *Auth
	Sessions    *Sessions
	Users       *Users
	Projects    *Projects
	Defects     *Defects
	Comments    *Comments
	Attachments *Attachments
}

func New(d Deps) *Services {
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	b := base{store: d.Store, policy: d.Policy, notifier: d.Notifier, logger: d.Logger}

	sessions := NewSessions(d.Store, d.Tokens, d.SessionTTL, d.Logger)
	users := &Users{base: b, sessions: sessions}
	return &Services{
		Auth:        &Auth{base: b, tokens: d.Tokens, users: users},
		Sessions:    sessions,
		Users:       users,
		Projects:    &Projects{base: b},
		Defects:     &Defects{base: b},
		Comments:    &Comments{base: b},
		Attachments: &Attachments{base: b},
	}
}

// ActorFor turns the authenticated user into a policy actor; nil stays nil.
func ActorFor(u *models.User) *policy.Actor {
	if u == nil {
		return nil
	}
	return &policy.Actor{UserID: u.ID, Role: u.Role}
}

type base struct {
	store    *repository.Store
	policy   *policy.Policy
	notifier Notifier
	logger   *slog.Logger
}

func (b base) authorize(actor *policy.Actor, action policy.Action, res policy.Resource) error {
	return b.policy.Authorize(actor, action, res).Err()
}

// requireActor rejects anonymous callers before any lookup is made.
func (b base) requireActor(actor *policy.Actor) error {
	if actor == nil {
		return policy.Decision{Unauthenticated: true, Reason: "authentication required"}.Err()
	}
	return nil
}

// fail logs errors outside the taxonomy and passes every error through.
func (b base) fail(op string, err error) error {
	if err != nil && !apperrors.IsTyped(err) {
		b.logger.Error(op+" failed",
			"event", eventName(op, "failed"),
			"module", "service",
			"layer", "application",
			"error", err.Error(),
		)
	}
	return err
}

func (b base) done(op string, attrs ...any) {
	args := append([]any{
		"event", eventName(op, "completed"),
		"module", "service",
		"layer", "application",
	}, attrs...)
	b.logger.Info(op+" completed", args...)
}

func eventName(op, outcome string) string {
	return strings.ReplaceAll(op, " ", "_") + "_" + outcome
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
