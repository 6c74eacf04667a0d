package pickers

import (
	"context"
	"runtime"

	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
	"github.com/warehouse-incentives/incentives-backend/pkg/security"
	"golang.org/x/sync/errgroup"
)

// maxHashWorkers caps concurrent argon2 hashes. Each one holds the configured
// memory cost for its whole run.
const maxHashWorkers = 4

// hashInitialPasswords hashes each picker id as its own password, in parallel
// on a bounded pool. hashes[i] belongs to ids[i].
func (s *service) hashInitialPasswords(ctx context.Context, ids []string) ([]string, error) {
	hashes := make([]string, len(ids))
	if len(ids) == 0 {
		return hashes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hashWorkers())
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hash, err := security.HashPassword(id, s.passwordCfg)
			if err != nil {
				return err
			}
			hashes[i] = hash
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash initial password")
	}
	return hashes, nil
}

func hashWorkers() int {
	return max(1, min(runtime.GOMAXPROCS(0), maxHashWorkers))
}
