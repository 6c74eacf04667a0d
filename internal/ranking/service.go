package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/warehouse-incentives/incentives-backend/internal/timewindow"
	"github.com/warehouse-incentives/incentives-backend/pkg/db/models"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
	"github.com/warehouse-incentives/incentives-backend/pkg/metrics"
)

// DefaultTopN is the leaderboard length shown to pickers.
const DefaultTopN = 15

// Directory resolves picker identities and cohort membership.
type Directory interface {
	CohortKeys(ctx context.Context, cohort int) ([]string, error)
	ListByKeys(ctx context.Context, pickerKeys []string) ([]models.User, error)
}

// Service exposes ranking reads over the event log.
type Service interface {
	Window(filter string) timewindow.Window
	Rank(ctx context.Context, scope Scope, window timewindow.Window) (RankedList, error)
	PickerStats(ctx context.Context, pickerID string, scope Scope, window timewindow.Window) (*StatCard, error)
	Rankings(ctx context.Context, scope Scope, window timewindow.Window) (*Rankings, error)
	Export(ctx context.Context, scope Scope, window timewindow.Window, withRoster bool) (*ExportTable, error)
	ScopeForCohort(ctx context.Context, cohort *int) (Scope, error)
	ScopeForPicker(ctx context.Context, cohort *int) (Scope, error)
}

// ServiceParams wires a ranking service.
type ServiceParams struct {
	Store     AggregateStore
	Directory Directory
	Resolver  *timewindow.Resolver
	Logger    *logger.Logger
	Metrics   *metrics.RankingMetrics
	Cache     Cache
	CacheTTL  time.Duration
	TopN      int
}

type service struct {
	store     AggregateStore
	directory Directory
	clock     *timewindow.Resolver
	logg      *logger.Logger
	metrics   *metrics.RankingMetrics
	cache     Cache
	cacheTTL  time.Duration
	topN      int
}

// NewService builds a ranking service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("aggregate store required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("picker directory required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	clock := params.Resolver
	if clock == nil {
		clock = timewindow.NewResolver(time.UTC, nil)
	}
	topN := params.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &service{
		store:     params.Store,
		directory: params.Directory,
		clock:     clock,
		logg:      params.Logger,
		metrics:   params.Metrics,
		cache:     params.Cache,
		cacheTTL:  params.CacheTTL,
		topN:      topN,
	}, nil
}

func (s *service) Window(filter string) timewindow.Window {
	return s.clock.Resolve(filter)
}

func (s *service) Rank(ctx context.Context, scope Scope, window timewindow.Window) (RankedList, error) {
	if scope.IsEmpty() {
		return buildRankedList(nil), nil
	}

	var key string
	if s.cacheable(window) {
		k, err := s.cacheKey(ctx, scope, window)
		if err != nil {
			s.logg.Warn(ctx, "ranking cache generation unavailable")
		} else {
			key = k
			if rows, ok := s.cachedAggregate(ctx, key); ok {
				s.metrics.CacheHit()
				return buildRankedList(rows), nil
			}
			s.metrics.CacheMiss()
		}
	}

	start := time.Now()
	rows, err := s.store.Aggregate(ctx, window.UTC(), scope.Keys())
	s.metrics.ObserveQuery("aggregate", time.Since(start))
	if err != nil {
		return RankedList{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate picker activity")
	}

	if key != "" {
		s.storeAggregate(ctx, key, rows)
	}
	return buildRankedList(rows), nil
}

func (s *service) PickerStats(ctx context.Context, pickerID string, scope Scope, window timewindow.Window) (*StatCard, error) {
	key := PickerKey(pickerID)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "picker id is required")
	}

	list, err := s.Rank(ctx, scope, window)
	if err != nil {
		return nil, err
	}

	card := &StatCard{
		PickerID:     pickerID,
		Cohort:       scope.Cohort(),
		Filter:       window.Filter,
		WindowStart:  window.Start,
		WindowEnd:    window.End,
		TotalInScope: list.Total(),
		ScopeMean:    roundMean(list.Mean),
	}

	if entry, ok := list.Find(pickerID); ok {
		card.PickerID = entry.PickerID
		card.ItemsPicked = entry.ItemsPicked
		card.ItemsLost = entry.ItemsLost
		card.UniquePicklists = entry.UniquePicklists
	} else {
		start := time.Now()
		row, found, err := s.store.AggregatePicker(ctx, window.UTC(), key)
		s.metrics.ObserveQuery("aggregate_picker", time.Since(start))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate picker activity")
		}
		if found {
			card.ItemsPicked = row.ItemsPicked
			card.ItemsLost = row.ItemsLost
			card.UniquePicklists = row.UniquePicklists
		}
	}

	card.Score = card.ItemsPicked
	card.Status = Classify(card.Score, list.Mean)

	standing := list.StandingOf(pickerID)
	card.Rank = standing.Rank
	card.ItemsToNextRank = standing.ItemsToNextRank
	card.DifferenceFromFirst = standing.DifferenceFromFirst

	card.Leaderboard, card.RequestingEntry = leaderboard(list, pickerID, s.topN)
	return card, nil
}

func (s *service) Rankings(ctx context.Context, scope Scope, window timewindow.Window) (*Rankings, error) {
	list, err := s.Rank(ctx, scope, window)
	if err != nil {
		return nil, err
	}
	return &Rankings{
		Filter:       window.Filter,
		Cohort:       scope.Cohort(),
		WindowStart:  window.Start,
		WindowEnd:    window.End,
		Rankings:     list.Entries,
		ScopeMean:    roundMean(list.Mean),
		TotalInScope: list.Total(),
	}, nil
}

// ScopeForCohort is All for a nil cohort, otherwise exactly the cohort's
// members. A cohort with no members ranks nobody.
func (s *service) ScopeForCohort(ctx context.Context, cohort *int) (Scope, error) {
	if cohort == nil {
		return All(), nil
	}
	keys, err := s.directory.CohortKeys(ctx, *cohort)
	if err != nil {
		return Scope{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cohort members")
	}
	return CohortMembers(*cohort, keys), nil
}

// ScopeForPicker ranks a picker against their own cohort, falling back to
// everyone when they have no cohort or it is empty.
func (s *service) ScopeForPicker(ctx context.Context, cohort *int) (Scope, error) {
	scope, err := s.ScopeForCohort(ctx, cohort)
	if err != nil {
		return Scope{}, err
	}
	if scope.IsEmpty() {
		return All(), nil
	}
	return scope, nil
}
