package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "user-directory/internal/domain/user"
	pkgerrors "user-directory/pkg/errors"
	"user-directory/pkg/fingerprint"
	"user-directory/pkg/logger"
	"user-directory/pkg/security"
)

const (
	msgDuplicateCreate = "An identical record already exists or was recently submitted."
	msgDuplicateUpdate = "A user with this exact configuration already exists."
	msgEmptyUpdate     = "No data provided for update. Please include the fields you wish to change."
	msgInvalidID       = "Invalid ID format. The user ID must be a valid UUID."
)

// Repository defines the interface for user data access operations.
// It abstracts the data layer, allowing different implementations
// (e.g., PostgreSQL, SQLite) to be used interchangeably.
type Repository interface {
	Create(ctx context.Context, u *domain.User) error                           // domain.ErrDuplicateFingerprint on unique violation
	GetByID(ctx context.Context, id string) (*domain.User, error)               // domain.ErrNotFound when absent
	GetByFingerprint(ctx context.Context, fp string) (*domain.User, error)      // nil, nil when absent
	Update(ctx context.Context, u *domain.User) error                           // Overwrite fields in place
	Delete(ctx context.Context, id string) error                                // domain.ErrNotFound when absent
	List(ctx context.Context, q domain.ListQuery) ([]domain.User, int64, error) // Page of records plus total matches
}

// UserUsecase is the record service as seen by transports.
type UserUsecase interface {
	CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error)
	UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error)
	DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error)
	GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error)
	ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error)
}

var _ UserUsecase = (*Usecase)(nil)

// Usecase implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Usecase struct {
	repo      Repository  // Repository for data access
	log       *zap.Logger // Logger for structured logging
	validator *Validator  // Validator for record payloads
	newID     func() string
}

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, log: log, validator: NewValidator(), newID: uuid.NewString}
}

// CreateUser validates the payload, rejects duplicates by fingerprint and stores a new record.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	u, err := uc.prepare(in.Payload)
	if err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, err
	}

	log.Info("creating user", zap.String("email", u.Email), zap.String("fingerprint", u.Fingerprint))

	existing, err := uc.repo.GetByFingerprint(ctx, u.Fingerprint)
	if err != nil {
		log.Error("failed to check fingerprint", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to validate record uniqueness", err)
	}
	if existing != nil {
		log.Warn("duplicate record", zap.String("existing_id", existing.ID))
		return nil, pkgerrors.NewConflictError("user", msgDuplicateCreate)
	}

	u.ID = uc.newID()
	if err := uc.repo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateFingerprint) {
			log.Warn("duplicate record rejected by storage", zap.String("fingerprint", u.Fingerprint))
			return nil, pkgerrors.NewConflictError("user", msgDuplicateCreate)
		}
		log.Error("failed to create user", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	return &CreateUserResponse{User: toDTO(u)}, nil
}

// UpdateUser replaces every field of an existing record and re-checks its fingerprint.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	id, err := parseID(in.ID)
	if err != nil {
		log.Warn("update user validation failed", zap.String("id", in.ID), zap.String("reason", "invalid id"))
		return nil, err
	}

	if len(in.Payload) == 0 {
		log.Warn("update user validation failed", zap.String("id", id), zap.String("reason", "empty payload"))
		return nil, pkgerrors.NewValidationError(msgEmptyUpdate)
	}

	u, err := uc.prepare(in.Payload)
	if err != nil {
		log.Warn("validate failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	log.Info("updating user", zap.String("id", id), zap.String("fingerprint", u.Fingerprint))

	existing, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, uc.lookupError(log, id, err)
	}

	dup, err := uc.repo.GetByFingerprint(ctx, u.Fingerprint)
	if err != nil {
		log.Error("failed to check fingerprint", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to validate record uniqueness", err)
	}
	if dup != nil && dup.ID != id {
		log.Warn("fingerprint collision", zap.String("id", id), zap.String("existing_id", dup.ID))
		return nil, pkgerrors.NewConflictError("user", msgDuplicateUpdate)
	}

	u.ID = id
	u.CreatedAt = existing.CreatedAt
	if err := uc.repo.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return nil, notFound(id)
		case errors.Is(err, domain.ErrDuplicateFingerprint):
			log.Warn("fingerprint collision rejected by storage", zap.String("id", id))
			return nil, pkgerrors.NewConflictError("user", msgDuplicateUpdate)
		}
		log.Error("failed to update user", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to update user", err)
	}

	return &UpdateUserResponse{User: toDTO(u)}, nil
}

// DeleteUser removes a record, which releases its fingerprint for reuse.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	id, err := parseID(in.ID)
	if err != nil {
		log.Warn("delete user validation failed", zap.String("id", in.ID), zap.String("reason", "invalid id"))
		return nil, err
	}

	log.Info("deleting user", zap.String("id", id))

	if err := uc.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("user not found", zap.String("id", id))
			return nil, notFound(id)
		}
		log.Error("failed to delete user", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to delete user", err)
	}

	return &DeleteUserResponse{ID: id}, nil
}

// GetUser retrieves a user by ID after validating the ID shape.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	id, err := parseID(in.ID)
	if err != nil {
		log.Warn("get user validation failed", zap.String("id", in.ID), zap.String("reason", "invalid id"))
		return nil, err
	}

	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, uc.lookupError(log, id, err)
	}

	return &GetUserResponse{User: toDTO(u)}, nil
}

// ListUsers retrieves a page of users with optional search and sorting.
// Invalid parameters are rejected before the repository is called.
func (uc *Usecase) ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	q, err := domain.ParseListParams(domain.ListParams{
		Search:      in.Search,
		SearchKey:   in.SearchKey,
		SearchValue: in.SearchValue,
		SortField:   in.SortField,
		SortOrder:   in.SortOrder,
		Page:        in.Page,
		Limit:       in.Limit,
	})
	if err != nil {
		var perr *domain.InvalidListParamError
		if errors.As(err, &perr) {
			log.Warn("invalid list parameters", zap.String("param", perr.Param), zap.Error(err))
			return nil, pkgerrors.NewBadRequestError(perr.Message, perr.Allowed...)
		}
		return nil, pkgerrors.NewBadRequestError(err.Error())
	}

	log.Info("listing users",
		zap.Int("mode", int(q.Mode)),
		zap.String("sort", string(q.SortColumn)),
		zap.String("order", string(q.SortOrder)),
		zap.Int64("page", q.Page),
		zap.Int64("limit", q.Limit),
	)

	domainUsers, total, err := uc.repo.List(ctx, q)
	if err != nil {
		log.Error("failed to list users", zap.Int64("page", q.Page), zap.Int64("limit", q.Limit), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list users", err)
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = toDTO(&domainUsers[i])
	}

	p := q.PageOf(total)
	return &ListUsersResponse{
		Users: users,
		Pagination: &Pagination{
			Total:      p.TotalRecords,
			Page:       p.CurrentPage,
			Limit:      p.Limit,
			TotalPages: p.TotalPages,
		},
	}, nil
}

// prepare validates and sanitizes a payload and computes its fingerprint.
func (uc *Usecase) prepare(payload map[string]any) (*domain.User, error) {
	u, err := uc.validator.Validate(payload)
	if err != nil {
		return nil, err
	}

	u.FirstName = security.Sanitize(u.FirstName)
	u.LastName = security.Sanitize(u.LastName)
	u.Fingerprint = fingerprint.Compute(u.BusinessFields())

	return u, nil
}

func (uc *Usecase) lookupError(log *zap.Logger, id string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn("user not found", zap.String("id", id))
		return notFound(id)
	}
	log.Error("failed to get user", zap.String("id", id), zap.Error(err))
	return pkgerrors.NewInternalError("failed to get user", err)
}

// parseID accepts only the canonical 36 character UUID form and lower-cases it.
func parseID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 36 {
		return "", pkgerrors.NewBadRequestError(msgInvalidID)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", pkgerrors.NewBadRequestError(msgInvalidID)
	}
	return id.String(), nil
}

func notFound(id string) error {
	return pkgerrors.NewNotFoundError("user", fmt.Sprintf("No record found with ID %s", id))
}

func toDTO(u *domain.User) User {
	return User{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Gender:      string(u.Gender),
		Status:      string(u.Status),
		Fingerprint: u.Fingerprint,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
