package models

import (
	"time"

	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
)

// User is a picker, supervisor or admin account. PickerKey is the lower-cased
// PickerID and carries the uniqueness constraint.
type User struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement"`
	PickerID        string     `gorm:"column:picker_id;type:text;not null"`
	PickerKey       string     `gorm:"column:picker_key;type:text;not null;uniqueIndex:idx_users_picker_key"`
	Name            *string    `gorm:"column:name;type:text"`
	Role            enums.Role `gorm:"column:role;type:text;not null;default:picker"`
	Cohort          *int       `gorm:"column:cohort;index:idx_users_cohort"`
	DateOfJoining   *time.Time `gorm:"column:date_of_joining;type:date"`
	PasswordHash    string     `gorm:"column:password_hash;type:text;not null"`
	PasswordChanged bool       `gorm:"column:password_changed;not null;default:false"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
