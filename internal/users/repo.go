package users

import (
	"context"
	"errors"
	"strings"

	"github.com/warehouse-incentives/incentives-backend/internal/repo"
	"github.com/warehouse-incentives/incentives-backend/pkg/db/models"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByKey retrieves the user with the given lower-cased picker id.
func (r *Repository) FindByKey(ctx context.Context, pickerKey string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("picker_key = ?", NormalizeKey(pickerKey)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by primary key.
func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword stores a new hash and the password_changed flag.
func (r *Repository) UpdatePassword(ctx context.Context, id uint64, hash string, changed bool) error {
	res := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "password_changed": changed})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateRoster overwrites the roster fields of an existing user.
func (r *Repository) UpdateRoster(ctx context.Context, id uint64, fields RosterFields) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(fields.columns()).Error
}

// InsertMissing creates the given users, ignoring any whose picker_key is
// already taken. It returns the number of rows inserted.
func (r *Repository) InsertMissing(ctx context.Context, dtos []CreateUserDTO) (int64, error) {
	if len(dtos) == 0 {
		return 0, nil
	}
	rows := make([]*models.User, 0, len(dtos))
	for _, dto := range dtos {
		rows = append(rows, dto.ToModel())
	}
	res := r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "picker_key"}}, DoNothing: true}).
		CreateInBatches(rows, repo.MaxInParams)
	return res.RowsAffected, res.Error
}

// ExistingKeys returns the subset of keys that already belong to a user.
func (r *Repository) ExistingKeys(ctx context.Context, keys []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(keys))
	err := repo.Chunked(keys, repo.MaxInParams, func(chunk []string) error {
		var found []string
		if err := r.DB(ctx).Model(&models.User{}).Where("picker_key IN ?", chunk).Pluck("picker_key", &found).Error; err != nil {
			return err
		}
		for _, k := range found {
			out[k] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByKeys loads the users whose picker_key is in keys.
func (r *Repository) ListByKeys(ctx context.Context, keys []string) ([]models.User, error) {
	var out []models.User
	err := repo.Chunked(keys, repo.MaxInParams, func(chunk []string) error {
		var batch []models.User
		if err := r.DB(ctx).Where("picker_key IN ?", chunk).Find(&batch).Error; err != nil {
			return err
		}
		out = append(out, batch...)
		return nil
	})
	return out, err
}

// CohortKeys returns the picker keys assigned to cohort.
func (r *Repository) CohortKeys(ctx context.Context, cohort int) ([]string, error) {
	var keys []string
	err := r.DB(ctx).
		Model(&models.User{}).
		Where("cohort = ?", cohort).
		Order("picker_key").
		Pluck("picker_key", &keys).Error
	return keys, err
}

// CohortSummary counts users per cohort in cohort order.
func (r *Repository) CohortSummary(ctx context.Context) ([]CohortCount, error) {
	var out []CohortCount
	err := r.DB(ctx).
		Model(&models.User{}).
		Select("cohort, COUNT(*) AS pickers").
		Where("cohort IS NOT NULL").
		Group("cohort").
		Order("cohort").
		Scan(&out).Error
	return out, err
}

// ListCohortMembers returns every user with a cohort ordered by cohort then id.
func (r *Repository) ListCohortMembers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := r.DB(ctx).
		Where("cohort IS NOT NULL").
		Order("cohort, picker_key").
		Find(&out).Error
	return out, err
}

// ListByRole returns every user with role.
func (r *Repository) ListByRole(ctx context.Context, role enums.Role) ([]models.User, error) {
	var out []models.User
	err := r.DB(ctx).Where("role = ?", role).Order("picker_key").Find(&out).Error
	return out, err
}

// Counts summarises registered users for the admin dashboard.
func (r *Repository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	db := r.DB(ctx)
	if err := db.Model(&models.User{}).Where("role = ?", enums.RolePicker).Count(&c.Pickers).Error; err != nil {
		return Counts{}, err
	}
	if err := db.Model(&models.User{}).Where("cohort IS NOT NULL").Distinct("cohort").Count(&c.Cohorts).Error; err != nil {
		return Counts{}, err
	}
	if err := db.Model(&models.User{}).Where("cohort IS NOT NULL").Count(&c.PickersInCohorts).Error; err != nil {
		return Counts{}, err
	}
	return c, nil
}

// IsNotFound reports whether err is a missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// NormalizeKey lower-cases a picker id into its unique key.
func NormalizeKey(pickerID string) string {
	return strings.ToLower(strings.TrimSpace(pickerID))
}
