package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-directory/internal/domain/user"
	pkgerrors "user-directory/pkg/errors"
	"user-directory/pkg/fingerprint"
)

const (
	fixedID = "0b7f3c2e-8a41-4d5e-9f60-1c2d3e4f5a6b"
	otherID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) GetByFingerprint(ctx context.Context, fp string) (*domain.User, error) {
	args := m.Called(ctx, fp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) List(ctx context.Context, q domain.ListQuery) ([]domain.User, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.User), args.Get(1).(int64), args.Error(2)
}

func newTestUsecase(t *testing.T) (*Usecase, *MockRepository) {
	repo := new(MockRepository)
	uc := New(repo, zaptest.NewLogger(t))
	uc.newID = func() string { return fixedID }
	return uc, repo
}

func validPayload() map[string]any {
	return map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
		"gender":     "Female",
	}
}

func adaFingerprint() string {
	return fingerprint.Compute(map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
		"gender":     "Female",
	})
}

func TestCreateUser_Success(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()

	repo.On("GetByFingerprint", ctx, adaFingerprint()).Return(nil, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.ID == fixedID && u.Status == domain.StatusActive && u.Fingerprint == adaFingerprint()
	})).Run(func(args mock.Arguments) {
		u := args.Get(1).(*domain.User)
		u.CreatedAt = time.Unix(1700000000, 0)
		u.UpdatedAt = u.CreatedAt
	}).Return(nil)

	resp, err := uc.CreateUser(ctx, CreateUserRequest{Payload: validPayload()})
	require.NoError(t, err)
	assert.Equal(t, fixedID, resp.User.ID)
	assert.Equal(t, "Active", resp.User.Status)
	assert.Equal(t, adaFingerprint(), resp.User.Fingerprint)
	assert.False(t, resp.User.CreatedAt.IsZero())
	repo.AssertExpectations(t)
}

func TestCreateUser_SanitizesBeforeFingerprint(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()

	p := validPayload()
	p["first_name"] = "  Ada "

	repo.On("GetByFingerprint", ctx, adaFingerprint()).Return(nil, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.FirstName == "Ada"
	})).Return(nil)

	_, err := uc.CreateUser(ctx, CreateUserRequest{Payload: p})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCreateUser_ValidationError(t *testing.T) {
	uc, repo := newTestUsecase(t)

	p := validPayload()
	p["first_name"] = "A"
	p["email"] = "nope"

	_, err := uc.CreateUser(context.Background(), CreateUserRequest{Payload: p})
	require.Error(t, err)

	var vErr *pkgerrors.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, []string{
		"first_name must be at least 2 characters long",
		"email must be a valid email",
	}, vErr.Details)
	assert.Equal(t, vErr.Details[0], vErr.Message)
	repo.AssertNotCalled(t, "GetByFingerprint", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_DuplicateFingerprint(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()

	repo.On("GetByFingerprint", ctx, adaFingerprint()).Return(&domain.User{ID: otherID}, nil)

	_, err := uc.CreateUser(ctx, CreateUserRequest{Payload: validPayload()})

	var cErr *pkgerrors.ConflictError
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, msgDuplicateCreate, cErr.Message)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_StorageRace(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()

	repo.On("GetByFingerprint", ctx, adaFingerprint()).Return(nil, nil)
	repo.On("Create", ctx, mock.Anything).Return(domain.ErrDuplicateFingerprint)

	_, err := uc.CreateUser(ctx, CreateUserRequest{Payload: validPayload()})

	var cErr *pkgerrors.ConflictError
	assert.True(t, errors.As(err, &cErr))
}

func TestCreateUser_StorageFailure(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()

	repo.On("GetByFingerprint", ctx, adaFingerprint()).Return(nil, errors.New("connection reset"))

	_, err := uc.CreateUser(ctx, CreateUserRequest{Payload: validPayload()})

	var iErr *pkgerrors.InternalError
	require.True(t, errors.As(err, &iErr))
	assert.EqualError(t, iErr.Unwrap(), "connection reset")
}

func TestUpdateUser_Success(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()
	created := time.Unix(1600000000, 0)

	repo.On("GetByID", ctx, fixedID).Return(&domain.User{ID: fixedID, CreatedAt: created}, nil)
	repo.On("GetByFingerprint", ctx, adaFingerprint()).Return(nil, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.ID == fixedID && u.CreatedAt.Equal(created) && u.Status == domain.StatusInactive
	})).Return(nil)

	p := validPayload()
	p["status"] = "Inactive"

	resp, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: fixedID, Payload: p})
	require.NoError(t, err)
	assert.Equal(t, fixedID, resp.User.ID)
	assert.Equal(t, "Inactive", resp.User.Status)
	repo.AssertExpectations(t)
}

func TestUpdateUser_OwnFingerprintIsNotACollision(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()

	repo.On("GetByID", ctx, fixedID).Return(&domain.User{ID: fixedID}, nil)
	repo.On("GetByFingerprint", ctx, adaFingerprint()).Return(&domain.User{ID: fixedID}, nil)
	repo.On("Update", ctx, mock.Anything).Return(nil)

	_, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: fixedID, Payload: validPayload()})
	assert.NoError(t, err)
}

func TestUpdateUser_Collision(t *testing.T) {
	uc, repo := newTestUsecase(t)
	ctx := context.Background()

	repo.On("GetByID", ctx, fixedID).Return(&domain.User{ID: fixedID}, nil)
	repo.On("GetByFingerprint", ctx, adaFingerprint()).Return(&domain.User{ID: otherID}, nil)

	_, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: fixedID, Payload: validPayload()})

	var cErr *pkgerrors.ConflictError
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, msgDuplicateUpdate, cErr.Message)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateUser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		payload map[string]any
		setup   func(repo *MockRepository)
		check   func(t *testing.T, err error)
	}{
		{
			name:    "invalid id",
			id:      "42",
			payload: validPayload(),
			check: func(t *testing.T, err error) {
				var e *pkgerrors.BadRequestError
				assert.True(t, errors.As(err, &e))
			},
		},
		{
			name:    "empty payload",
			id:      fixedID,
			payload: map[string]any{},
			check: func(t *testing.T, err error) {
				var e *pkgerrors.ValidationError
				require.True(t, errors.As(err, &e))
				assert.Equal(t, msgEmptyUpdate, e.Message)
			},
		},
		{
			name:    "not found",
			id:      fixedID,
			payload: validPayload(),
			setup: func(repo *MockRepository) {
				repo.On("GetByID", mock.Anything, fixedID).Return(nil, domain.ErrNotFound)
			},
			check: func(t *testing.T, err error) {
				var e *pkgerrors.NotFoundError
				require.True(t, errors.As(err, &e))
				assert.Contains(t, e.Message, "No record found with ID "+fixedID)
			},
		},
		{
			name:    "row vanished before write",
			id:      fixedID,
			payload: validPayload(),
			setup: func(repo *MockRepository) {
				repo.On("GetByID", mock.Anything, fixedID).Return(&domain.User{ID: fixedID}, nil)
				repo.On("GetByFingerprint", mock.Anything, mock.Anything).Return(nil, nil)
				repo.On("Update", mock.Anything, mock.Anything).Return(domain.ErrNotFound)
			},
			check: func(t *testing.T, err error) {
				var e *pkgerrors.NotFoundError
				assert.True(t, errors.As(err, &e))
			},
		},
		{
			name:    "storage rejects fingerprint",
			id:      fixedID,
			payload: validPayload(),
			setup: func(repo *MockRepository) {
				repo.On("GetByID", mock.Anything, fixedID).Return(&domain.User{ID: fixedID}, nil)
				repo.On("GetByFingerprint", mock.Anything, mock.Anything).Return(nil, nil)
				repo.On("Update", mock.Anything, mock.Anything).Return(domain.ErrDuplicateFingerprint)
			},
			check: func(t *testing.T, err error) {
				var e *pkgerrors.ConflictError
				assert.True(t, errors.As(err, &e))
			},
		},
		{
			name:    "storage failure",
			id:      fixedID,
			payload: validPayload(),
			setup: func(repo *MockRepository) {
				repo.On("GetByID", mock.Anything, fixedID).Return(nil, errors.New("timeout"))
			},
			check: func(t *testing.T, err error) {
				var e *pkgerrors.InternalError
				assert.True(t, errors.As(err, &e))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, repo := newTestUsecase(t)
			if tt.setup != nil {
				tt.setup(repo)
			}

			resp, err := uc.UpdateUser(context.Background(), UpdateUserRequest{ID: tt.id, Payload: tt.payload})
			assert.Nil(t, resp)
			require.Error(t, err)
			tt.check(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func TestDeleteUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		uc, repo := newTestUsecase(t)
		repo.On("Delete", mock.Anything, fixedID).Return(nil)

		resp, err := uc.DeleteUser(context.Background(), DeleteUserRequest{ID: fixedID})
		require.NoError(t, err)
		assert.Equal(t, fixedID, resp.ID)
	})

	t.Run("upper case id is normalized", func(t *testing.T) {
		uc, repo := newTestUsecase(t)
		repo.On("Delete", mock.Anything, fixedID).Return(nil)

		_, err := uc.DeleteUser(context.Background(), DeleteUserRequest{ID: "0B7F3C2E-8A41-4D5E-9F60-1C2D3E4F5A6B"})
		assert.NoError(t, err)
	})

	t.Run("invalid id", func(t *testing.T) {
		for _, id := range []string{"", "abc", "{" + fixedID + "}", "urn:uuid:" + fixedID, "0b7f3c2e8a414d5e9f601c2d3e4f5a6b"} {
			uc, repo := newTestUsecase(t)
			_, err := uc.DeleteUser(context.Background(), DeleteUserRequest{ID: id})

			var e *pkgerrors.BadRequestError
			assert.True(t, errors.As(err, &e), id)
			repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		}
	})

	t.Run("not found", func(t *testing.T) {
		uc, repo := newTestUsecase(t)
		repo.On("Delete", mock.Anything, fixedID).Return(domain.ErrNotFound)

		_, err := uc.DeleteUser(context.Background(), DeleteUserRequest{ID: fixedID})

		var e *pkgerrors.NotFoundError
		assert.True(t, errors.As(err, &e))
	})
}

func TestGetUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		uc, repo := newTestUsecase(t)
		repo.On("GetByID", mock.Anything, fixedID).Return(&domain.User{
			ID:        fixedID,
			FirstName: "Ada",
			Gender:    domain.GenderFemale,
			Status:    domain.StatusActive,
		}, nil)

		resp, err := uc.GetUser(context.Background(), GetUserRequest{ID: fixedID})
		require.NoError(t, err)
		assert.Equal(t, "Ada", resp.User.FirstName)
		assert.Equal(t, "Female", resp.User.Gender)
	})

	t.Run("invalid id", func(t *testing.T) {
		uc, _ := newTestUsecase(t)
		_, err := uc.GetUser(context.Background(), GetUserRequest{ID: "not-a-uuid"})

		var e *pkgerrors.BadRequestError
		require.True(t, errors.As(err, &e))
		assert.Equal(t, msgInvalidID, e.Message)
	})

	t.Run("not found", func(t *testing.T) {
		uc, repo := newTestUsecase(t)
		repo.On("GetByID", mock.Anything, fixedID).Return(nil, domain.ErrNotFound)

		_, err := uc.GetUser(context.Background(), GetUserRequest{ID: fixedID})

		var e *pkgerrors.NotFoundError
		assert.True(t, errors.As(err, &e))
	})
}

func TestListUsers_Success(t *testing.T) {
	uc, repo := newTestUsecase(t)

	want := domain.ListQuery{
		Mode:         domain.SearchColumn,
		SearchColumn: domain.ColumnEmail,
		Term:         "example",
		SortColumn:   domain.ColumnLastName,
		SortOrder:    domain.SortDesc,
		Page:         2,
		Limit:        2,
	}
	repo.On("List", mock.Anything, want).Return([]domain.User{
		{ID: fixedID, FirstName: "Ada"},
		{ID: otherID, FirstName: "Alan"},
	}, int64(5), nil)

	resp, err := uc.ListUsers(context.Background(), ListUsersRequest{
		SearchKey:   "email",
		SearchValue: " example ",
		SortField:   "last_name",
		SortOrder:   "desc",
		Page:        "2",
		Limit:       "2",
	})
	require.NoError(t, err)
	assert.Len(t, resp.Users, 2)
	assert.Equal(t, &Pagination{Total: 5, Page: 2, Limit: 2, TotalPages: 3}, resp.Pagination)
}

func TestListUsers_InvalidParams(t *testing.T) {
	tests := []struct {
		name string
		req  ListUsersRequest
	}{
		{"bad sort field", ListUsersRequest{SortField: "bogus"}},
		{"bad sort order", ListUsersRequest{SortOrder: "sideways"}},
		{"bad search key", ListUsersRequest{SearchKey: "password", SearchValue: "x"}},
		{"key without value", ListUsersRequest{SearchKey: "email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, repo := newTestUsecase(t)

			_, err := uc.ListUsers(context.Background(), tt.req)

			var e *pkgerrors.BadRequestError
			require.True(t, errors.As(err, &e))
			assert.NotEmpty(t, e.Details)
			repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
		})
	}
}

func TestListUsers_StorageFailure(t *testing.T) {
	uc, repo := newTestUsecase(t)
	repo.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), errors.New("boom"))

	_, err := uc.ListUsers(context.Background(), ListUsersRequest{})

	var e *pkgerrors.InternalError
	assert.True(t, errors.As(err, &e))
}
