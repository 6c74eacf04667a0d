package items

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/warehouse-incentives/incentives-backend/internal/timewindow"
	"github.com/warehouse-incentives/incentives-backend/internal/users"
	"github.com/warehouse-incentives/incentives-backend/pkg/db/models"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
	"github.com/warehouse-incentives/incentives-backend/pkg/metrics"
	"github.com/warehouse-incentives/incentives-backend/pkg/tabular"
	"go.uber.org/multierr"
)

const (
	defaultBatchSize  = 500
	recentUploadLimit = 10
)

type pickerProvisioner interface {
	EnsurePickers(ctx context.Context, pickerIDs []string) (int, error)
}

type userCounter interface {
	Counts(ctx context.Context) (users.Counts, error)
}

// generationBumper invalidates cached rankings after the event log changes.
type generationBumper interface {
	BumpRankingGeneration(ctx context.Context) (int64, error)
}

// Service ingests event files and serves event-level reads.
type Service interface {
	Ingest(ctx context.Context, filename string, data []byte, source string) (*IngestResult, error)
	IngestDir(ctx context.Context, dir string, source string) (*FolderResult, error)
	Stats(ctx context.Context) (*Stats, error)
	Clear(ctx context.Context) (int64, error)
	PickerEvents(ctx context.Context, pickerID string, window timewindow.Window) (*PickerDetail, error)
}

// ServiceParams wires an items service.
type ServiceParams struct {
	Repo        *Repository
	Pickers     pickerProvisioner
	Users       userCounter
	Generations generationBumper
	Location    *time.Location
	BatchSize   int
	Logger      *logger.Logger
	Metrics     *metrics.IngestMetrics
	Now         func() time.Time
}

type service struct {
	repo        *Repository
	pickers     pickerProvisioner
	users       userCounter
	generations generationBumper
	loc         *time.Location
	batchSize   int
	logg        *logger.Logger
	metrics     *metrics.IngestMetrics
	now         func() time.Time
}

// NewService builds an items service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if params.Pickers == nil {
		return nil, fmt.Errorf("picker provisioner required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user counter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:        params.Repo,
		pickers:     params.Pickers,
		users:       params.Users,
		generations: params.Generations,
		loc:         loc,
		batchSize:   batch,
		logg:        params.Logger,
		metrics:     params.Metrics,
		now:         now,
	}, nil
}

// Ingest parses an event CSV and appends its rows batch by batch. Each batch
// commits on its own, so a failure leaves the earlier batches in place.
func (s *service) Ingest(ctx context.Context, filename string, data []byte, source string) (*IngestResult, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "filename is required")
	}
	if _, err := tabular.Detect(filename, data, false); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnsupported, err, "upload must be a csv file")
	}

	reader := tabular.NewCSVReader(data)
	head, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read csv header")
	}
	cols, ok := resolveColumns(tabular.NewHeader(head))
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv must have picker_ldap and updated_at columns")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"filename": filename, "source": source})
	result := &IngestResult{Filename: filename}
	seen := map[string]struct{}{}
	var pickerIDs []string
	batch := make([]models.ItemEvent, 0, s.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.repo.InsertBatch(ctx, batch); err != nil {
			return err
		}
		result.RowsInserted += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.RowsSkipped++
			continue
		}
		event, ok := parseEvent(row, cols, s.loc, filename)
		if !ok {
			result.RowsSkipped++
			continue
		}
		key := strings.ToLower(event.PickerID)
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			pickerIDs = append(pickerIDs, event.PickerID)
		}
		batch = append(batch, event)
		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				return s.failIngest(ctx, result, err)
			}
		}
	}
	if err := flush(); err != nil {
		return s.failIngest(ctx, result, err)
	}

	added, err := s.pickers.EnsurePickers(ctx, pickerIDs)
	if err != nil {
		return nil, s.failAfterInsert(ctx, result, err, "provision pickers")
	}
	result.PickersAdded = added

	if err := s.repo.RecordProcessed(ctx, filename, result.RowsInserted, s.now()); err != nil {
		return nil, s.failAfterInsert(ctx, result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record processed file"), "record processed file")
	}

	s.invalidateRankings(ctx)
	s.metrics.ObserveFile(source, result.RowsInserted, result.RowsSkipped)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"rows_inserted": result.RowsInserted,
		"rows_skipped":  result.RowsSkipped,
		"pickers_added": result.PickersAdded,
	}), "event file ingested")
	return result, nil
}

func (s *service) failIngest(ctx context.Context, result *IngestResult, err error) (*IngestResult, error) {
	if result.RowsInserted > 0 {
		s.invalidateRankings(ctx)
	}
	s.logg.Error(s.logg.WithField(ctx, "rows_committed", result.RowsInserted), "event batch insert failed", err)
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert event batch").
		WithDetails(map[string]any{"rows_committed": result.RowsInserted})
}

// failAfterInsert handles a failure once every batch is committed. The rows
// are already visible, so cached rankings are invalidated before returning.
func (s *service) failAfterInsert(ctx context.Context, result *IngestResult, err error, step string) error {
	if result.RowsInserted > 0 {
		s.invalidateRankings(ctx)
	}
	s.logg.Error(s.logg.WithFields(ctx, map[string]any{"rows_committed": result.RowsInserted, "step": step}), "event file bookkeeping failed", err)
	return err
}

// IngestDir ingests every *.csv in dir that has not been processed yet, in
// filename order. A failing file is logged and does not stop the pass.
func (s *service) IngestDir(ctx context.Context, dir string, source string) (*FolderResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "prepare upload folder")
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list upload folder")
	}
	sort.Strings(paths)

	processed, err := s.repo.ProcessedFilenames(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load processed files")
	}

	out := &FolderResult{Files: []IngestResult{}, Failed: []string{}}
	var errs error
	for _, path := range paths {
		name := filepath.Base(path)
		if _, done := processed[name]; done {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			out.Failed = append(out.Failed, name)
			continue
		}
		res, err := s.Ingest(ctx, name, data, source)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			out.Failed = append(out.Failed, name)
			continue
		}
		out.Files = append(out.Files, *res)
		out.TotalRows += res.RowsInserted
	}
	if errs != nil {
		s.logg.Error(s.logg.WithField(ctx, "failed_files", len(out.Failed)), "some event files failed", errs)
	}
	return out, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count events")
	}
	counts, err := s.users.Counts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
	}
	uploads, err := s.repo.RecentUploads(ctx, recentUploadLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list uploads")
	}

	stats := &Stats{
		TotalItems:        totals.Items,
		PickersWithEvents: totals.Pickers,
		RegisteredPickers: counts.Pickers,
		TotalCohorts:      counts.Cohorts,
		PickersInCohorts:  counts.PickersInCohorts,
		FirstEventAt:      totals.First,
		LastEventAt:       totals.Last,
		RecentUploads:     make([]UploadDTO, 0, len(uploads)),
	}
	for _, u := range uploads {
		stats.RecentUploads = append(stats.RecentUploads, UploadDTO{
			Filename:     u.Filename,
			RowsInserted: u.RowsInserted,
			ProcessedAt:  u.ProcessedAt,
		})
	}
	return stats, nil
}

func (s *service) Clear(ctx context.Context) (int64, error) {
	removed, err := s.repo.Clear(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear events")
	}
	s.invalidateRankings(ctx)
	s.logg.Info(s.logg.WithField(ctx, "rows_removed", removed), "event data cleared")
	return removed, nil
}

func (s *service) PickerEvents(ctx context.Context, pickerID string, window timewindow.Window) (*PickerDetail, error) {
	key := users.NormalizeKey(pickerID)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "picker id is required")
	}
	events, err := s.repo.PickerEvents(ctx, key, window)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load picker events")
	}
	detail := &PickerDetail{PickerID: pickerID, Filter: window.Filter, Details: make([]EventDTO, 0, len(events))}
	for _, e := range events {
		detail.Details = append(detail.Details, eventFromModel(e))
	}
	return detail, nil
}

func (s *service) invalidateRankings(ctx context.Context) {
	if s.generations == nil {
		return
	}
	if _, err := s.generations.BumpRankingGeneration(ctx); err != nil {
		s.logg.Error(ctx, "failed to invalidate ranking cache", err)
	}
}
