package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/siap-api/internal/dto"
	"github.com/noah-isme/siap-api/internal/models"
	"github.com/noah-isme/siap-api/pkg/database"
	appErrors "github.com/noah-isme/siap-api/pkg/errors"
)

type adminUserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetApproved(ctx context.Context, id string, approved bool) error
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

var errUserNotFound = appErrors.Clone(appErrors.ErrNotFound, "Pengguna tidak ditemukan.")

// UserService implements the admin user management use cases.
type UserService struct {
	repo      adminUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo adminUserRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns every registered user, newest registration first.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// Approve grants a pending user access.
func (s *UserService) Approve(ctx context.Context, actor *models.JWTClaims, id string, meta RequestMeta) (*models.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsApproved {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Pengguna sudah disetujui.")
	}
	if err := s.mutate(s.repo.SetApproved(ctx, id, true)); err != nil {
		return nil, err
	}
	user.IsApproved = true
	emitAudit(ctx, s.repo, s.logger, actorID(actor), models.AuditActionUserApprove, "users", id, map[string]bool{"is_approved": true}, meta)
	return user, nil
}

// Revoke withdraws a user's access without deleting the account.
func (s *UserService) Revoke(ctx context.Context, actor *models.JWTClaims, id string, meta RequestMeta) (*models.User, error) {
	if actorID(actor) == id {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Anda tidak dapat mencabut akses akun Anda sendiri.")
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.mutate(s.repo.SetApproved(ctx, id, false)); err != nil {
		return nil, err
	}
	user.IsApproved = false
	emitAudit(ctx, s.repo, s.logger, actorID(actor), models.AuditActionUserRevoke, "users", id, map[string]bool{"is_approved": false}, meta)
	return user, nil
}

// SetRole grants or removes the admin flag.
func (s *UserService) SetRole(ctx context.Context, actor *models.JWTClaims, id string, req dto.SetRoleRequest, meta RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	isAdmin := *req.IsAdmin
	if actorID(actor) == id && !isAdmin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Anda tidak dapat menghapus status admin akun Anda sendiri.")
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.mutate(s.repo.SetAdmin(ctx, id, isAdmin)); err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin
	emitAudit(ctx, s.repo, s.logger, actorID(actor), models.AuditActionUserRole, "users", id, map[string]bool{"is_admin": isAdmin}, meta)
	return user, nil
}

// Delete removes a registration. Users that still own documents are kept.
func (s *UserService) Delete(ctx context.Context, actor *models.JWTClaims, id string, meta RequestMeta) error {
	if actorID(actor) == id {
		return appErrors.Clone(appErrors.ErrValidation, "Anda tidak dapat menghapus akun Anda sendiri.")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case database.IsMissingRow(err):
			return errUserNotFound
		case database.IsForeignKeyViolation(err):
			return appErrors.Wrap(err, appErrors.ErrUserHasDocuments.Code, appErrors.ErrUserHasDocuments.Status, appErrors.ErrUserHasDocuments.Message)
		default:
			s.logger.Error("failed to delete user", zap.String("user_id", id), zap.Error(err))
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
		}
	}
	emitAudit(ctx, s.repo, s.logger, actorID(actor), models.AuditActionUserDelete, "users", id, nil, meta)
	return nil
}

func (s *UserService) find(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if database.IsMissingRow(err) {
			return nil, errUserNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return user, nil
}

// mutate maps the result of a single-row update.
func (s *UserService) mutate(err error) error {
	if err == nil {
		return nil
	}
	if database.IsMissingRow(err) {
		return errUserNotFound
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
}

func actorID(actor *models.JWTClaims) string {
	if actor == nil {
		return ""
	}
	return actor.UserID
}
