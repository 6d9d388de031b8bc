package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-directory/internal/usecase/user"
	pkgerrors "user-directory/pkg/errors"
	"user-directory/pkg/logger"
)

const (
	msgCreated = "User created successfully"
	msgUpdated = "User updated successfully"
	msgDeleted = "User successfully deleted"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc           user.UserUsecase
	log          *zap.Logger
	exposeErrors bool // include internal error text in responses
}

// NewUserHandler creates a new UserHandler instance. exposeErrors should only
// be set in development.
func NewUserHandler(uc user.UserUsecase, log *zap.Logger, exposeErrors bool) *UserHandler {
	return &UserHandler{
		uc:           uc,
		log:          log,
		exposeErrors: exposeErrors,
	}
}

// UserResponse is the JSON form of a directory record.
type UserResponse struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Gender      string    `json:"gender"`
	Status      string    `json:"status"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DataResponse wraps a single result.
type DataResponse struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

// DeletedResponse is the data of a delete confirmation.
type DeletedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ListUsersResponse represents the HTTP response for listing users
type ListUsersResponse struct {
	Data []UserResponse `json:"data"`
	Meta Meta           `json:"meta"`
}

// Meta carries pagination information
type Meta struct {
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int64 `json:"totalPages"`
	CurrentPage  int64 `json:"currentPage"`
	Limit        int64 `json:"limit"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	payload, ok := h.bindPayload(c)
	if !ok {
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{Payload: payload})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, DataResponse{
		Message: msgCreated,
		Data:    toResponse(resp.User),
	})
}

// GetUser handles GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: c.Param("id")})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DataResponse{Data: toResponse(resp.User)})
}

// UpdateUser handles PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	payload, ok := h.bindPayload(c)
	if !ok {
		return
	}

	resp, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:      c.Param("id"),
		Payload: payload,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DataResponse{
		Message: msgUpdated,
		Data:    toResponse(resp.User),
	})
}

// DeleteUser handles DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	resp, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: c.Param("id")})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DataResponse{
		Message: msgDeleted,
		Data:    DeletedResponse{ID: resp.ID, Status: "Deleted"},
	})
}

// ListUsers handles GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	req := user.ListUsersRequest{
		Search:      c.Query("search"),
		SearchKey:   c.Query("searchKey"),
		SearchValue: c.Query("searchValue"),
		SortField:   firstQuery(c, "sortField", "sort"),
		SortOrder:   firstQuery(c, "sortOrder", "order"),
		Page:        c.Query("page"),
		Limit:       c.Query("limit"),
	}

	resp, err := h.uc.ListUsers(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	users := make([]UserResponse, len(resp.Users))
	for i, u := range resp.Users {
		users[i] = toResponse(u)
	}

	out := ListUsersResponse{Data: users}
	if p := resp.Pagination; p != nil {
		out.Meta = Meta{
			TotalRecords: p.Total,
			TotalPages:   p.TotalPages,
			CurrentPage:  p.Page,
			Limit:        p.Limit,
		}
	}

	c.JSON(http.StatusOK, out)
}

// bindPayload decodes the body as a JSON object. A missing body is an empty
// payload so the usecase can report it.
func (h *UserHandler) bindPayload(c *gin.Context) (map[string]any, bool) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   pkgerrors.CodeBadRequest,
			Message: "Request body must be a JSON object.",
		})
		return nil, false
	}
	return payload, true
}

// handleError converts usecase errors to HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	log := logger.WithContext(c.Request.Context(), h.log)

	var internal *pkgerrors.InternalError
	if errors.As(err, &internal) {
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		resp := ErrorResponse{
			Error:   pkgerrors.CodeInternal,
			Message: "An internal error occurred",
		}
		if h.exposeErrors {
			resp.Details = []string{err.Error()}
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	var appErr pkgerrors.AppError
	if !errors.As(err, &appErr) {
		log.Error("unexpected error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   pkgerrors.CodeInternal,
			Message: "An internal error occurred",
		})
		return
	}

	resp := ErrorResponse{Error: appErr.Code(), Message: appErr.Error()}
	switch e := appErr.(type) {
	case *pkgerrors.ValidationError:
		resp.Message = e.Message
		resp.Details = e.Details
	case *pkgerrors.BadRequestError:
		resp.Message = e.Message
		resp.Details = e.Details
	}

	c.JSON(appErr.StatusCode(), resp)
}

func firstQuery(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v := c.Query(k); v != "" {
			return v
		}
	}
	return ""
}

func toResponse(u user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Gender:      u.Gender,
		Status:      u.Status,
		Fingerprint: u.Fingerprint,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
