package users

import (
	"strings"
	"time"

	"github.com/warehouse-incentives/incentives-backend/pkg/db/models"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID              uint64     `json:"id"`
	PickerID        string     `json:"picker_id"`
	Name            *string    `json:"name,omitempty"`
	Role            enums.Role `json:"role"`
	Cohort          *int       `json:"cohort"`
	DateOfJoining   *string    `json:"date_of_joining,omitempty"`
	PasswordChanged bool       `json:"password_changed"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	PickerID        string
	PasswordHash    string
	Role            enums.Role
	Name            *string
	Cohort          *int
	DateOfJoining   *time.Time
	PasswordChanged bool
}

// RosterFields are the columns a roster upload may overwrite.
type RosterFields struct {
	Name          *string
	Cohort        *int
	DateOfJoining *time.Time
	SetName       bool
	SetJoined     bool
}

func (f RosterFields) columns() map[string]any {
	cols := map[string]any{"cohort": f.Cohort}
	if f.SetName {
		cols["name"] = f.Name
	}
	if f.SetJoined {
		cols["date_of_joining"] = f.DateOfJoining
	}
	return cols
}

// CohortCount is one row of the cohort summary.
type CohortCount struct {
	Cohort  int   `json:"cohort" gorm:"column:cohort"`
	Pickers int64 `json:"pickers" gorm:"column:pickers"`
}

// Counts are registered-user totals.
type Counts struct {
	Pickers          int64 `json:"registered_pickers"`
	Cohorts          int64 `json:"total_cohorts"`
	PickersInCohorts int64 `json:"pickers_in_cohorts"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	dto := &UserDTO{
		ID:              u.ID,
		PickerID:        u.PickerID,
		Name:            u.Name,
		Role:            u.Role,
		Cohort:          u.Cohort,
		PasswordChanged: u.PasswordChanged,
		CreatedAt:       u.CreatedAt,
	}
	if u.DateOfJoining != nil {
		joined := u.DateOfJoining.Format("2006-01-02")
		dto.DateOfJoining = &joined
	}
	return dto
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.RolePicker
	}
	pickerID := strings.TrimSpace(c.PickerID)

	return &models.User{
		PickerID:        pickerID,
		PickerKey:       NormalizeKey(pickerID),
		Name:            c.Name,
		Role:            role,
		Cohort:          c.Cohort,
		DateOfJoining:   c.DateOfJoining,
		PasswordHash:    c.PasswordHash,
		PasswordChanged: c.PasswordChanged,
	}
}
