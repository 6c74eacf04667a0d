package pickers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warehouse-incentives/incentives-backend/internal/users"
	"github.com/warehouse-incentives/incentives-backend/pkg/config"
	"github.com/warehouse-incentives/incentives-backend/pkg/db"
	"github.com/warehouse-incentives/incentives-backend/pkg/db/models"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
	"github.com/warehouse-incentives/incentives-backend/pkg/security"
	"github.com/warehouse-incentives/incentives-backend/pkg/tabular"
	"gorm.io/gorm"
)

const tempPasswordLength = 12

// Service manages picker accounts and roster uploads.
type Service interface {
	ImportCohorts(ctx context.Context, filename string, data []byte) (*ImportResult, error)
	ImportRoster(ctx context.Context, filename string, data []byte) (*ImportResult, error)
	EnsurePickers(ctx context.Context, pickerIDs []string) (int, error)
	CohortSummary(ctx context.Context) ([]users.CohortCount, error)
	ListCohortMembers(ctx context.Context) ([]users.UserDTO, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*CreatedUser, error)
	ResetPickerPasswords(ctx context.Context) (int, error)
}

// ServiceParams wires a picker service.
type ServiceParams struct {
	DB             *db.Client
	Users          *users.Repository
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type service struct {
	db          *db.Client
	users       *users.Repository
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService builds a picker service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:          params.DB,
		users:       params.Users,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

// assignment is one picker's roster change, keyed by lower-cased id.
type assignment struct {
	pickerID string
	fields   users.RosterFields
}

func (s *service) ImportCohorts(ctx context.Context, filename string, data []byte) (*ImportResult, error) {
	rows, err := readSheet(filename, data)
	if err != nil {
		return nil, err
	}
	sheet := parseCohortSheet(rows)
	if sheet.Cohorts == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no \"Cohort N\" columns found in header")
	}

	order, changes := collect(len(sheet.Order), func(yield func(string, users.RosterFields)) {
		for _, id := range sheet.Order {
			n := sheet.Assignments[id]
			yield(id, users.RosterFields{Cohort: &n})
		}
	})

	result, err := s.apply(ctx, order, changes)
	if err != nil {
		return nil, err
	}
	result.Filename = filename
	result.Cohorts = sheet.Cohorts
	return result, nil
}

func (s *service) ImportRoster(ctx context.Context, filename string, data []byte) (*ImportResult, error) {
	rows, err := readSheet(filename, data)
	if err != nil {
		return nil, err
	}
	records, err := parseRoster(rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	cohorts := map[int]struct{}{}
	order, changes := collect(len(records), func(yield func(string, users.RosterFields)) {
		for _, rec := range records {
			if rec.Cohort != nil {
				cohorts[*rec.Cohort] = struct{}{}
			}
			yield(rec.PickerID, users.RosterFields{
				Name:          rec.Name,
				SetName:       rec.Name != nil,
				Cohort:        rec.Cohort,
				DateOfJoining: rec.DateOfJoining,
				SetJoined:     true,
			})
		}
	})

	result, err := s.apply(ctx, order, changes)
	if err != nil {
		return nil, err
	}
	result.Filename = filename
	result.Cohorts = len(cohorts)
	return result, nil
}

// collect dedupes picker ids case-insensitively. The first spelling is kept
// and the last row's fields win.
func collect(size int, each func(yield func(string, users.RosterFields))) ([]string, map[string]assignment) {
	order := make([]string, 0, size)
	changes := make(map[string]assignment, size)
	each(func(id string, fields users.RosterFields) {
		key := users.NormalizeKey(id)
		if key == "" {
			return
		}
		prev, seen := changes[key]
		if !seen {
			order = append(order, key)
			prev.pickerID = strings.TrimSpace(id)
		}
		prev.fields = fields
		changes[key] = prev
	})
	return order, changes
}

// apply updates existing pickers and creates missing ones with their picker
// id as the initial password. Existing passwords are left alone.
func (s *service) apply(ctx context.Context, order []string, changes map[string]assignment) (*ImportResult, error) {
	existing, err := s.users.ListByKeys(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing pickers")
	}
	byKey := make(map[string]models.User, len(existing))
	for _, u := range existing {
		byKey[u.PickerKey] = u
	}

	var missing []string
	for _, key := range order {
		if _, ok := byKey[key]; !ok {
			missing = append(missing, key)
		}
	}
	ids := make([]string, len(missing))
	for i, key := range missing {
		ids[i] = changes[key].pickerID
	}
	hashes, err := s.hashInitialPasswords(ctx, ids)
	if err != nil {
		return nil, err
	}

	creates := make([]users.CreateUserDTO, 0, len(missing))
	for i, key := range missing {
		change := changes[key]
		creates = append(creates, users.CreateUserDTO{
			PickerID:      change.pickerID,
			PasswordHash:  hashes[i],
			Role:          enums.RolePicker,
			Name:          change.fields.Name,
			Cohort:        change.fields.Cohort,
			DateOfJoining: change.fields.DateOfJoining,
		})
	}

	result := &ImportResult{TotalPickers: len(order)}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		for _, key := range order {
			u, ok := byKey[key]
			if !ok {
				continue
			}
			if err := repo.UpdateRoster(ctx, u.ID, changes[key].fields); err != nil {
				return err
			}
			result.Updated++
		}
		inserted, err := repo.InsertMissing(ctx, creates)
		if err != nil {
			return err
		}
		result.Created = int(inserted)
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply roster changes")
	}

	summary, err := s.users.CohortSummary(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cohort summary")
	}
	result.CohortSummary = summary

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"total_pickers": result.TotalPickers,
		"created":       result.Created,
		"updated":       result.Updated,
	}), "roster applied")
	return result, nil
}

// EnsurePickers registers every unseen picker id as a picker whose initial
// password is the id itself.
func (s *service) EnsurePickers(ctx context.Context, pickerIDs []string) (int, error) {
	order, changes := collect(len(pickerIDs), func(yield func(string, users.RosterFields)) {
		for _, id := range pickerIDs {
			yield(id, users.RosterFields{})
		}
	})
	if len(order) == 0 {
		return 0, nil
	}

	existing, err := s.users.ExistingKeys(ctx, order)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing pickers")
	}

	var ids []string
	for _, key := range order {
		if _, ok := existing[key]; !ok {
			ids = append(ids, changes[key].pickerID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	hashes, err := s.hashInitialPasswords(ctx, ids)
	if err != nil {
		return 0, err
	}

	creates := make([]users.CreateUserDTO, 0, len(ids))
	for i, id := range ids {
		creates = append(creates, users.CreateUserDTO{PickerID: id, PasswordHash: hashes[i], Role: enums.RolePicker})
	}

	inserted, err := s.users.InsertMissing(ctx, creates)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register pickers")
	}
	return int(inserted), nil
}

func (s *service) CohortSummary(ctx context.Context) ([]users.CohortCount, error) {
	summary, err := s.users.CohortSummary(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cohort summary")
	}
	return summary, nil
}

func (s *service) ListCohortMembers(ctx context.Context) ([]users.UserDTO, error) {
	members, err := s.users.ListCohortMembers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cohort members")
	}
	out := make([]users.UserDTO, 0, len(members))
	for i := range members {
		out = append(out, *users.FromModel(&members[i]))
	}
	return out, nil
}

func (s *service) CreateUser(ctx context.Context, input CreateUserInput) (*CreatedUser, error) {
	pickerID := strings.TrimSpace(input.PickerID)
	if pickerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "picker_id is required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be picker, supervisor or admin")
	}

	out := &CreatedUser{}
	password := input.Password
	if password == "" {
		generated, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
		}
		password = generated
		out.TempPassword = generated
	} else if len(password) < s.minPasswordLength() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "password must be at least %d characters", s.minPasswordLength())
	}

	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		PickerID:     pickerID,
		PasswordHash: hash,
		Role:         input.Role,
		Name:         input.Name,
		Cohort:       input.Cohort,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "picker_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "picker id already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	out.User = users.FromModel(user)
	return out, nil
}

// ResetPickerPasswords sets every picker's password back to their picker id
// and forces a change on next login.
func (s *service) ResetPickerPasswords(ctx context.Context) (int, error) {
	pickers, err := s.users.ListByRole(ctx, enums.RolePicker)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pickers")
	}
	ids := make([]string, len(pickers))
	for i, p := range pickers {
		ids[i] = p.PickerID
	}
	hashes, err := s.hashInitialPasswords(ctx, ids)
	if err != nil {
		return 0, err
	}

	reset := 0
	for i, p := range pickers {
		if err := s.users.UpdatePassword(ctx, p.ID, hashes[i], false); err != nil {
			return reset, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset password")
		}
		reset++
	}
	return reset, nil
}

func (s *service) minPasswordLength() int {
	if s.passwordCfg.MinLength > 0 {
		return s.passwordCfg.MinLength
	}
	return 6
}

func readSheet(filename string, data []byte) ([][]string, error) {
	format, err := tabular.Detect(filename, data, true)
	if err != nil {
		if errors.Is(err, tabular.ErrUnsupported) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnsupported, err, "upload must be a csv or xlsx file")
		}
		return nil, err
	}
	rows, err := tabular.ReadRows(format, data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read sheet")
	}
	return rows, nil
}
