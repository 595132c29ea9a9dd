package user

import "time"

// User is the persisted row of the users table. Timestamps are owned by the
// service layer, so gorm's automatic time tracking is switched off.
type User struct {
	ID          int64     `gorm:"primaryKey"`
	FirstName   string    `gorm:"column:first_name;not null"`
	LastName    string    `gorm:"column:last_name;not null"`
	Email       string    `gorm:"column:email;not null"`
	PhoneNumber *string   `gorm:"column:phone_number"`
	Department  string    `gorm:"column:department;not null"`
	Role        string    `gorm:"column:role;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
	Active      bool      `gorm:"column:active;not null"`
}

func (User) TableName() string {
	return "users"
}
