package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"user-directory/internal/domain/user"
)

// pgUniqueViolation is the SQLSTATE postgres reports for a unique index conflict.
const pgUniqueViolation = "23505"

// UserRepoPG implements the user Repository on top of GORM. It runs against
// PostgreSQL in production and SQLite in tests and local runs.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	FirstName   string    `gorm:"not null"`
	LastName    string    `gorm:"not null"`
	Email       string    `gorm:"not null"`
	Gender      string    `gorm:"not null"`
	Status      string    `gorm:"not null"`
	Fingerprint string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_users_fingerprint"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// Create inserts a new user. A fingerprint already held by another row
// surfaces as user.ErrDuplicateFingerprint.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}

	model := toSchema(u)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			r.log.Warn("fingerprint conflict on insert", zap.String("fingerprint", u.Fingerprint))
			return user.ErrDuplicateFingerprint
		}
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("id", u.ID))
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt

	r.log.Info("user created in db", zap.String("id", u.ID))
	return nil
}

// Update overwrites the business fields of an existing row in place.
func (r *UserRepoPG) Update(ctx context.Context, u *user.User) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}

	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&UserSchema{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"first_name":  u.FirstName,
			"last_name":   u.LastName,
			"email":       u.Email,
			"gender":      string(u.Gender),
			"status":      string(u.Status),
			"fingerprint": u.Fingerprint,
			"updated_at":  now,
		})
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			r.log.Warn("fingerprint conflict on update", zap.String("id", u.ID))
			return user.ErrDuplicateFingerprint
		}
		r.log.Error("failed to update user in db", zap.Error(err), zap.String("id", u.ID))
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}

	u.UpdatedAt = now

	r.log.Info("user updated in db", zap.String("id", u.ID))
	return nil
}

// Delete removes a user from the database by ID.
func (r *UserRepoPG) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserSchema{})
	if err := res.Error; err != nil {
		r.log.Error("failed to delete user in db", zap.Error(err), zap.String("id", id))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}

	r.log.Info("user deleted in db", zap.String("id", id))
	return nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepoPG) GetByID(ctx context.Context, id string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.String("id", id))
			return nil, user.ErrNotFound
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toDomain(&model), nil
}

// GetByFingerprint returns the row holding fp, or nil when there is none.
func (r *UserRepoPG) GetByFingerprint(ctx context.Context, fp string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("fingerprint = ?", fp).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get user by fingerprint from db", zap.Error(err))
		return nil, fmt.Errorf("failed to get user by fingerprint: %w", err)
	}

	return toDomain(&model), nil
}

// List returns one page of users matching q together with the total number
// of matches. The count and the page are fetched concurrently.
func (r *UserRepoPG) List(ctx context.Context, q user.ListQuery) ([]user.User, int64, error) {
	where, args := buildFilter(q)
	order := buildOrder(q)

	var (
		total  int64
		models []UserSchema
	)

	g, gctx := errgroup.WithContext(ctx)

	// *gorm.DB chains are not safe to share, so each goroutine builds its own
	g.Go(func() error {
		tx := r.db.WithContext(gctx).Model(&UserSchema{})
		if where != "" {
			tx = tx.Where(where, args...)
		}
		return tx.Count(&total).Error
	})

	g.Go(func() error {
		tx := r.db.WithContext(gctx).Model(&UserSchema{})
		if where != "" {
			tx = tx.Where(where, args...)
		}
		return tx.Order(order).
			Offset(int(q.Offset())).
			Limit(int(q.Limit)).
			Find(&models).Error
	})

	if err := g.Wait(); err != nil {
		r.log.Error("failed to list users from db",
			zap.Error(err),
			zap.Int64("page", q.Page),
			zap.Int64("limit", q.Limit),
		)
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i := range models {
		users[i] = *toDomain(&models[i])
	}

	return users, total, nil
}

// Ping checks that the underlying connection pool can reach the database.
func (r *UserRepoPG) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// isUniqueViolation recognises unique index conflicts. Connections opened with
// TranslateError report gorm.ErrDuplicatedKey; the raw postgres code covers
// those opened without it.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func toSchema(u *user.User) UserSchema {
	return UserSchema{
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

func toDomain(m *UserSchema) *user.User {
	return &user.User{
		ID:          m.ID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Email:       m.Email,
		Gender:      user.Gender(m.Gender),
		Status:      user.Status(m.Status),
		Fingerprint: m.Fingerprint,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
