package user

import (
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/user"
	"github.com/frahmantamala/employee-management/internal/notification"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

var Roles = []Role{RoleAdmin, RoleManager, RoleEmployee}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

func RoleNames() []string {
	names := make([]string, len(Roles))
	for i, role := range Roles {
		names[i] = string(role)
	}
	return names
}

// ParseRole normalizes case and surrounding whitespace. The result may still
// be invalid; callers check Valid.
func ParseRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// User is an employee record.
type User struct {
	ID          int64
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber *string
	Department  string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Active      bool
}

func (u *User) Clone() *User {
	c := *u
	if u.PhoneNumber != nil {
		phone := *u.PhoneNumber
		c.PhoneNumber = &phone
	}
	return &c
}

func (u *User) Snapshot() notification.Snapshot {
	s := notification.Snapshot{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Department: u.Department,
		Role:       string(u.Role),
		Active:     u.Active,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
	if u.PhoneNumber != nil {
		s.PhoneNumber = *u.PhoneNumber
	}
	return s
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Department:  u.Department,
		Role:        u.Role,
		CreatedAt:   Timestamp(u.CreatedAt),
		UpdatedAt:   Timestamp(u.UpdatedAt),
		Active:      u.Active,
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Department:  u.Department,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		Active:      u.Active,
	}
}

func FromDataModel(m *userDatamodel.User) *User {
	return &User{
		ID:          m.ID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Email:       m.Email,
		PhoneNumber: m.PhoneNumber,
		Department:  m.Department,
		Role:        Role(m.Role),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Active:      m.Active,
	}
}
