package user

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	domain "user-directory/internal/domain/user"
	pkgerrors "user-directory/pkg/errors"
	"user-directory/pkg/security"
)

// recordPayload is the typed view of an incoming record used for tag validation.
type recordPayload struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=30,personname"`
	LastName  string `json:"last_name" validate:"required,min=2,max=30,personname"`
	Email     string `json:"email" validate:"required,email"`
	Gender    string `json:"gender" validate:"required,oneof=Male Female Non-Binary"`
	Status    string `json:"status" validate:"required,oneof=Active Inactive"`
}

// payloadFields lists the accepted payload keys in reporting order.
var payloadFields = []string{"first_name", "last_name", "email", "gender", "status"}

// Validator checks raw record payloads and normalizes them into domain records.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the record specific rules registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report violations under their wire names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation(personNameTag, isPersonName); err != nil {
		panic(fmt.Sprintf("user: register %s validation: %v", personNameTag, err))
	}

	return &Validator{validate: v}
}

const personNameTag = "personname"

func isPersonName(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !security.IsNameChar(r) {
			return false
		}
	}
	return true
}

// Validate checks every constraint of payload and returns the normalized record,
// or a *pkgerrors.ValidationError listing all violations.
func (v *Validator) Validate(payload map[string]any) (*domain.User, error) {
	var violations []string
	values := make(map[string]string, len(payloadFields))
	mistyped := make(map[string]bool)

	for _, field := range payloadFields {
		raw, ok := payload[field]
		if !ok || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			violations = append(violations, fmt.Sprintf("%s must be a string", field))
			mistyped[field] = true
			continue
		}
		values[field] = strings.TrimSpace(s)
	}

	if _, ok := values["status"]; !ok && !mistyped["status"] {
		values["status"] = string(domain.StatusActive)
	}

	in := recordPayload{
		FirstName: values["first_name"],
		LastName:  values["last_name"],
		Email:     values["email"],
		Gender:    values["gender"],
		Status:    values["status"],
	}

	if err := v.validate.Struct(in); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, pkgerrors.NewValidationError("", err.Error())
		}
		for _, e := range fieldErrs {
			if mistyped[e.Field()] {
				continue
			}
			violations = append(violations, formatFieldError(e))
		}
	}

	violations = append(violations, unknownKeys(payload)...)

	if len(violations) > 0 {
		return nil, pkgerrors.NewValidationError("", violations...)
	}

	return &domain.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Gender:    domain.Gender(in.Gender),
		Status:    domain.Status(in.Status),
	}, nil
}

// formatFieldError converts a validator.FieldError into a human-readable message.
func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", e.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", e.Field(), strings.Join(strings.Fields(e.Param()), ", "))
	case "personname":
		return fmt.Sprintf("%s may only contain letters, spaces, hyphens and apostrophes", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}

func unknownKeys(payload map[string]any) []string {
	var keys []string
	for k := range payload {
		known := false
		for _, f := range payloadFields {
			if k == f {
				known = true
				break
			}
		}
		if !known {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = fmt.Sprintf("%q is not allowed", k)
	}
	return msgs
}
