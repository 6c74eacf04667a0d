// Package dbcopy moves a local SQLite deployment into the hosted database.
package dbcopy

import (
	"context"
	"fmt"

	"github.com/warehouse-incentives/incentives-backend/pkg/db/models"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultBatchSize = 5000

// Result counts the rows written to the target.
type Result struct {
	Users          int64 `json:"users"`
	Items          int64 `json:"items"`
	ProcessedFiles int64 `json:"processed_files"`
}

// Params wires a Copier. Source and Target must both be migrated.
type Params struct {
	Source    *gorm.DB
	Target    *gorm.DB
	BatchSize int
	Logger    *logger.Logger
}

// Copier replaces the target's users, items and processed files with the
// source's rows. Primary keys are not carried over.
type Copier struct {
	source    *gorm.DB
	target    *gorm.DB
	batchSize int
	logg      *logger.Logger
}

// New validates params and builds a Copier.
func New(params Params) (*Copier, error) {
	if params.Source == nil || params.Target == nil {
		return nil, fmt.Errorf("source and target databases are required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Copier{source: params.Source, target: params.Target, batchSize: batch, logg: params.Logger}, nil
}

// Copy runs the three table copies in order. Users and processed files are
// each replaced in one transaction; items commit per batch.
func (c *Copier) Copy(ctx context.Context) (*Result, error) {
	result := &Result{}
	var err error
	if result.Users, err = c.copyUsers(ctx); err != nil {
		return result, fmt.Errorf("copy users: %w", err)
	}
	if result.Items, err = c.copyItems(ctx); err != nil {
		return result, fmt.Errorf("copy items after %d rows: %w", result.Items, err)
	}
	if result.ProcessedFiles, err = c.copyProcessed(ctx); err != nil {
		return result, fmt.Errorf("copy processed files: %w", err)
	}
	c.logg.Info(c.logg.WithFields(ctx, map[string]any{
		"users":           result.Users,
		"items":           result.Items,
		"processed_files": result.ProcessedFiles,
	}), "database copy complete")
	return result, nil
}

func (c *Copier) copyUsers(ctx context.Context) (int64, error) {
	var rows []models.User
	if err := c.source.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return 0, err
	}
	for i := range rows {
		rows[i].ID = 0
	}
	err := c.target.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "picker_key"}},
			UpdateAll: true,
		}).CreateInBatches(&rows, c.batchSize).Error
	})
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// copyItems pages the source by its own primary key. Target ids are assigned
// on insert, so the source batch is never written back into.
func (c *Copier) copyItems(ctx context.Context) (int64, error) {
	if err := c.target.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ItemEvent{}).Error; err != nil {
		return 0, err
	}

	var total, copied int64
	if err := c.source.WithContext(ctx).Model(&models.ItemEvent{}).Count(&total).Error; err != nil {
		return 0, err
	}

	var lastID int64
	for {
		var batch []models.ItemEvent
		err := c.source.WithContext(ctx).
			Where("id > ?", lastID).
			Order("id").
			Limit(c.batchSize).
			Find(&batch).Error
		if err != nil {
			return copied, err
		}
		if len(batch) == 0 {
			break
		}
		lastID = batch[len(batch)-1].ID

		rows := make([]models.ItemEvent, len(batch))
		copy(rows, batch)
		for i := range rows {
			rows[i].ID = 0
		}
		if err := c.target.WithContext(ctx).Create(&rows).Error; err != nil {
			return copied, err
		}
		copied += int64(len(rows))
		c.logg.Info(c.logg.WithFields(ctx, map[string]any{"copied": copied, "total": total}), "items batch copied")
	}

	if copied != total {
		return copied, fmt.Errorf("copied %d of %d items", copied, total)
	}
	return copied, nil
}

func (c *Copier) copyProcessed(ctx context.Context) (int64, error) {
	var rows []models.ProcessedCSV
	if err := c.source.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return 0, err
	}
	for i := range rows {
		rows[i].ID = 0
	}
	err := c.target.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ProcessedCSV{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, c.batchSize).Error
	})
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}
