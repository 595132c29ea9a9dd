package user

import (
	"fmt"
	"strings"
)

const (
	LabelFirstName   = "First Name"
	LabelLastName    = "Last Name"
	LabelEmail       = "Email"
	LabelPhoneNumber = "Phone Number"
	LabelDepartment  = "Department"
	LabelRole        = "Role"
	LabelStatus      = "Status"
)

// Change is one field that differs between the stored and the incoming record.
type Change struct {
	Field string
	Old   string
	New   string
}

func (c Change) String() string {
	return fmt.Sprintf("%s changed from '%s' to '%s'", c.Field, c.Old, c.New)
}

// ChangeList keeps the fixed field order first name, last name, email, phone,
// department, role, status.
type ChangeList []Change

func (l ChangeList) Empty() bool {
	return len(l) == 0
}

func (l ChangeList) Lines() []string {
	lines := make([]string, len(l))
	for i, c := range l {
		lines[i] = c.String()
	}
	return lines
}

func (l ChangeList) Join(sep string) string {
	return strings.Join(l.Lines(), sep)
}

// Diff compares current with next. The phone number only counts when both
// sides carry a value, so clearing or first setting it is not reported.
func Diff(current, next *User) ChangeList {
	var changes ChangeList

	add := func(field, from, to string) {
		if from != to {
			changes = append(changes, Change{Field: field, Old: from, New: to})
		}
	}

	add(LabelFirstName, current.FirstName, next.FirstName)
	add(LabelLastName, current.LastName, next.LastName)
	add(LabelEmail, current.Email, next.Email)
	if current.PhoneNumber != nil && next.PhoneNumber != nil {
		add(LabelPhoneNumber, *current.PhoneNumber, *next.PhoneNumber)
	}
	add(LabelDepartment, current.Department, next.Department)
	add(LabelRole, string(current.Role), string(next.Role))
	add(LabelStatus, statusLabel(current.Active), statusLabel(next.Active))

	return changes
}

func statusLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}
