package pickers

import (
	"errors"

	"github.com/warehouse-incentives/incentives-backend/internal/users"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
)

var errMissingColumn = errors.New("roster is missing a picker id column (Casper ID, casper_id or picker_id)")

// ImportResult summarises a cohort or roster upload.
type ImportResult struct {
	Filename      string              `json:"filename"`
	TotalPickers  int                 `json:"total_pickers"`
	Created       int                 `json:"created"`
	Updated       int                 `json:"updated"`
	Cohorts       int                 `json:"cohorts"`
	CohortSummary []users.CohortCount `json:"cohort_summary"`
}

// CreateUserInput describes an account created by an operator.
type CreateUserInput struct {
	PickerID string     `json:"picker_id" validate:"required,picker_id"`
	Password string     `json:"password,omitempty"`
	Role     enums.Role `json:"role" validate:"required,role"`
	Name     *string    `json:"name,omitempty"`
	Cohort   *int       `json:"cohort,omitempty" validate:"omitempty,gt=0"`
}

// CreatedUser is returned from CreateUser. TempPassword is only set when the
// password was generated.
type CreatedUser struct {
	User         *users.UserDTO `json:"user"`
	TempPassword string         `json:"temp_password,omitempty"`
}
