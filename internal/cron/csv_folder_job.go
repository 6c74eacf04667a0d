package cron

import (
	"context"
	"fmt"
	"strings"

	"github.com/warehouse-incentives/incentives-backend/internal/items"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
)

type folderIngester interface {
	IngestDir(ctx context.Context, dir string, source string) (*items.FolderResult, error)
}

// CSVFolderJobParams configures the upload folder scan.
type CSVFolderJobParams struct {
	Logger   *logger.Logger
	Ingester folderIngester
	Dir      string
}

// NewCSVFolderJob builds the job that ingests unprocessed event files dropped
// into the upload folder.
func NewCSVFolderJob(params CSVFolderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ingester == nil {
		return nil, fmt.Errorf("ingester required")
	}
	dir := strings.TrimSpace(params.Dir)
	if dir == "" {
		return nil, fmt.Errorf("upload dir required")
	}
	return &csvFolderJob{logg: params.Logger, ingester: params.Ingester, dir: dir}, nil
}

type csvFolderJob struct {
	logg     *logger.Logger
	ingester folderIngester
	dir      string
}

func (j *csvFolderJob) Name() string { return "csv-folder-ingest" }

func (j *csvFolderJob) Run(ctx context.Context) error {
	result, err := j.ingester.IngestDir(ctx, j.dir, items.SourceFolder)
	if err != nil {
		return fmt.Errorf("scan %s: %w", j.dir, err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"dir":          j.dir,
		"files":        len(result.Files),
		"failed_files": len(result.Failed),
		"rows":         result.TotalRows,
	})
	if len(result.Files) == 0 && len(result.Failed) == 0 {
		j.logg.Debug(logCtx, "no new event files")
		return nil
	}
	j.logg.Info(logCtx, "upload folder ingested")
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d event file(s) failed: %s", len(result.Failed), strings.Join(result.Failed, ", "))
	}
	return nil
}
