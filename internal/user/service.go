package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/employee-management/internal"
	userDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/user"
	"github.com/frahmantamala/employee-management/internal/notification"
	"github.com/frahmantamala/employee-management/pkg/logger"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("user not found")

type Repository interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetAll(ctx context.Context) ([]*userDatamodel.User, error)
	Save(ctx context.Context, u *userDatamodel.User) error
	DeleteByID(ctx context.Context, id int64) error
}

// Notifier is satisfied by *notification.Dispatcher.
type Notifier interface {
	Notify(ctx context.Context, msg notification.Message) notification.Report
}

type Service struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, notifier Notifier, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	f := dto.normalized()
	if err := f.validate(); err != nil {
		s.logger.WarnContext(ctx, "user validation failed", "error", err.GetDetailedMessage())
		return nil, err
	}

	now := s.now()
	u := &User{
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Email:       f.Email,
		PhoneNumber: f.PhoneNumber,
		Department:  f.Department,
		Role:        f.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
		Active:      true,
	}

	model := ToDataModel(u)
	if err := s.repo.Save(ctx, model); err != nil {
		s.logger.ErrorContext(ctx, "failed to create user", "error", err, "email", u.Email)
		return nil, internal.NewInternalError("failed to create user", err)
	}
	created := FromDataModel(model)

	s.logger.InfoContext(ctx, "user created", "user_id", created.ID, "role", created.Role)

	s.notify(ctx, notification.Created{User: created.Snapshot()})

	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.load(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	models, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}

	users := make([]*User, 0, len(models))
	for _, m := range models {
		users = append(users, FromDataModel(m))
	}
	return users, nil
}

// Update replaces every mutable field, persists the record and notifies only
// when at least one tracked field changed.
func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	f := dto.normalized()
	if verr := f.validate(); verr != nil {
		s.logger.WarnContext(ctx, "user validation failed", "user_id", id, "error", verr.GetDetailedMessage())
		return nil, verr
	}

	next := current.Clone()
	next.FirstName = f.FirstName
	next.LastName = f.LastName
	next.Email = f.Email
	next.PhoneNumber = f.PhoneNumber
	next.Department = f.Department
	next.Role = f.Role
	next.Active = dto.active()

	changes := Diff(current, next)

	next.UpdatedAt = s.now()
	if next.UpdatedAt.Before(next.CreatedAt) {
		next.UpdatedAt = next.CreatedAt
	}

	model := ToDataModel(next)
	if err := s.repo.Save(ctx, model); err != nil {
		s.logger.ErrorContext(ctx, "failed to update user", "error", err, "user_id", id)
		return nil, internal.NewInternalError("failed to update user", err)
	}
	updated := FromDataModel(model)

	s.logger.InfoContext(ctx, "user updated", "user_id", id, "changes", len(changes))

	if !changes.Empty() {
		s.notify(ctx, notification.Updated{
			User:      updated.Snapshot(),
			Changes:   changes.Lines(),
			UpdatedAt: updated.UpdatedAt,
		})
	}

	return updated, nil
}

// Delete removes the record permanently and returns the confirmation text.
func (s *Service) Delete(ctx context.Context, id int64) (string, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", notFound(id)
		}
		s.logger.ErrorContext(ctx, "failed to delete user", "error", err, "user_id", id)
		return "", internal.NewInternalError("failed to delete user", err)
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", id)

	s.notify(ctx, notification.Deleted{
		User:   current.Snapshot(),
		Reason: notification.DefaultDeletionReason,
	})

	return fmt.Sprintf("User with ID %d has been permanently deleted", id), nil
}

func (s *Service) load(ctx context.Context, id int64) (*User, error) {
	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound(id)
		}
		s.logger.ErrorContext(ctx, "failed to get user", "error", err, "user_id", id)
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if model == nil {
		return nil, notFound(id)
	}
	return FromDataModel(model), nil
}

// notify runs after the record is persisted. Its outcome is logged and never
// reaches the caller.
func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	log := logger.Or(ctx, s.logger)
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "notifier panicked", "kind", msg.Kind(), "panic", r)
		}
	}()

	report := s.notifier.Notify(ctx, msg)
	if !report.OK() {
		log.WarnContext(ctx, "notification incomplete",
			"kind", report.Kind,
			"user_id", msg.Record().ID,
			"attempted", report.Attempted,
			"failed", len(report.Failures))
	}
}

func notFound(id int64) *internal.AppError {
	return internal.NewNotFoundError(fmt.Sprintf("User not found with id: %d", id), internal.ErrCodeUserNotFound)
}
