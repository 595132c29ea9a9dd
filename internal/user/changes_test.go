package user_test

import (
	"github.com/frahmantamala/employee-management/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Diff", func() {
	var base *user.User

	BeforeEach(func() {
		base = &user.User{
			FirstName:   "Ann",
			LastName:    "Lee",
			Email:       "ann@x.com",
			PhoneNumber: strPtr("+1-555-0100"),
			Department:  "Eng",
			Role:        user.RoleEmployee,
			Active:      true,
		}
	})

	It("should be empty for identical records", func() {
		Expect(user.Diff(base, base.Clone()).Empty()).To(BeTrue())
	})

	It("should keep the fixed field order", func() {
		next := base.Clone()
		next.Active = false
		next.Role = user.RoleAdmin
		next.Department = "Ops"
		next.PhoneNumber = strPtr("+1-555-0199")
		next.Email = "ann.lee@x.com"
		next.LastName = "Li"
		next.FirstName = "Anna"

		changes := user.Diff(base, next)

		Expect(changes.Lines()).To(Equal([]string{
			"First Name changed from 'Ann' to 'Anna'",
			"Last Name changed from 'Lee' to 'Li'",
			"Email changed from 'ann@x.com' to 'ann.lee@x.com'",
			"Phone Number changed from '+1-555-0100' to '+1-555-0199'",
			"Department changed from 'Eng' to 'Ops'",
			"Role changed from 'EMPLOYEE' to 'ADMIN'",
			"Status changed from 'Active' to 'Inactive'",
		}))
	})

	It("should ignore phone changes unless both sides have a value", func() {
		cleared := base.Clone()
		cleared.PhoneNumber = nil
		Expect(user.Diff(base, cleared).Empty()).To(BeTrue())

		added := base.Clone()
		base.PhoneNumber = nil
		Expect(user.Diff(base, added).Empty()).To(BeTrue())
	})

	It("should join lines with a separator", func() {
		next := base.Clone()
		next.FirstName = "Anna"
		next.Department = "Ops"

		Expect(user.Diff(base, next).Join("; ")).To(Equal(
			"First Name changed from 'Ann' to 'Anna'; Department changed from 'Eng' to 'Ops'"))
	})

	It("should not alias the phone number when cloning", func() {
		clone := base.Clone()
		*clone.PhoneNumber = "changed"

		Expect(*base.PhoneNumber).To(Equal("+1-555-0100"))
	})
})
