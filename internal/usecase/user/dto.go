package user

import "time"

// CreateUserRequest carries the decoded JSON body of a create call.
type CreateUserRequest struct {
	Payload map[string]any
}

// CreateUserResponse represents the response payload after creating a user.
type CreateUserResponse struct {
	User User
}

// UpdateUserRequest carries the target id and the full replacement record.
type UpdateUserRequest struct {
	ID      string
	Payload map[string]any
}

// UpdateUserResponse represents the response payload after updating a user.
type UpdateUserResponse struct {
	User User
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID string
}

// DeleteUserResponse represents the response payload after deleting a user.
type DeleteUserResponse struct {
	ID string
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID string
}

// GetUserResponse represents the response payload for user details.
type GetUserResponse struct {
	User User
}

// ListUsersRequest holds the raw list query parameters.
// It supports pagination, sorting and search.
type ListUsersRequest struct {
	Search      string
	SearchKey   string
	SearchValue string
	SortField   string
	SortOrder   string
	Page        string
	Limit       string
}

// ListUsersResponse represents the response payload for user listing.
type ListUsersResponse struct {
	Users      []User
	Pagination *Pagination
}

// Pagination represents pagination information for list responses.
type Pagination struct {
	Total      int64
	Page       int64
	Limit      int64
	TotalPages int64
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	Gender      string
	Status      string
	Fingerprint string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
