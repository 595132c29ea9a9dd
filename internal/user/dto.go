package user

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/core/common/validation"
)

const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp marshals as "yyyy-MM-dd HH:mm:ss".
type Timestamp time.Time

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(TimestampLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	parsed, err := time.Parse(`"`+TimestampLayout+`"`, string(data))
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	*t = Timestamp(parsed)
	return nil
}

type CreateUserDTO struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
	Department  string  `json:"department"`
	Role        string  `json:"role"`
}

// UpdateUserDTO replaces every mutable field. An omitted Active means active.
type UpdateUserDTO struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
	Department  string  `json:"department"`
	Role        string  `json:"role"`
	Active      *bool   `json:"active"`
}

type UserResponse struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	PhoneNumber *string   `json:"phoneNumber"`
	Department  string    `json:"department"`
	Role        Role      `json:"role"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
	Active      bool      `json:"active"`
}

type DeleteResponse struct {
	Message string `json:"message"`
}

// fields is the normalized form shared by create and update.
type fields struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber *string
	Department  string
	Role        Role
}

func normalize(firstName, lastName, email string, phone *string, department, role string) fields {
	f := fields{
		FirstName:  strings.TrimSpace(firstName),
		LastName:   strings.TrimSpace(lastName),
		Email:      strings.TrimSpace(email),
		Department: strings.TrimSpace(department),
		Role:       ParseRole(role),
	}
	if phone != nil {
		if p := strings.TrimSpace(*phone); p != "" {
			f.PhoneNumber = &p
		}
	}
	return f
}

func (f fields) validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("firstName", f.FirstName).Required().MaxLength(100)
	v.Field("lastName", f.LastName).Required().MaxLength(100)
	v.Field("email", f.Email).Required().MaxLength(255).Email()
	v.Field("phoneNumber", f.PhoneNumber).MaxLength(32)
	v.Field("department", f.Department).Required().MaxLength(100)
	v.Field("role", string(f.Role)).Required().OneOf(internal.ErrCodeInvalidRole, RoleNames()...)
	return v.Validate()
}

func (d CreateUserDTO) normalized() fields {
	return normalize(d.FirstName, d.LastName, d.Email, d.PhoneNumber, d.Department, d.Role)
}

func (d UpdateUserDTO) normalized() fields {
	return normalize(d.FirstName, d.LastName, d.Email, d.PhoneNumber, d.Department, d.Role)
}

func (d UpdateUserDTO) active() bool {
	if d.Active == nil {
		return true
	}
	return *d.Active
}
