package patient

import (
	"context"
	"time"

	"github.com/simple-clinic/clinic-sync/pkg/common/kafka"
	"github.com/simple-clinic/clinic-sync/pkg/common/logger"
	"github.com/simple-clinic/clinic-sync/pkg/common/models"
	"github.com/simple-clinic/clinic-sync/pkg/observability/metrics"
	"github.com/simple-clinic/clinic-sync/pkg/synclock"
)

const (
	entityName = "patient"
	lockKey    = "patients"
	sourceName = "patient-sync-service"
)

type Service struct {
	store     TxStore
	merger    *Merger
	searcher  *Searcher
	locker    synclock.Locker
	lockTTL   time.Duration
	publisher kafka.Publisher
	dlq       kafka.Publisher
	metrics   *metrics.Metrics
}

type ServiceOptions struct {
	Locker    synclock.Locker
	LockTTL   time.Duration
	Publisher kafka.Publisher
	DLQ       kafka.Publisher
	Metrics   *metrics.Metrics
}

func NewService(store TxStore, matcher NameMatcher, search SearchConfig, opts ServiceOptions) *Service {
	locker := opts.Locker
	if locker == nil {
		locker = synclock.NoopLocker{}
	}
	ttl := opts.LockTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Service{
		store:     store,
		merger:    NewMerger(),
		searcher:  NewSearcher(store, matcher, search, opts.Metrics),
		locker:    locker,
		lockTTL:   ttl,
		publisher: opts.Publisher,
		dlq:       opts.DLQ,
		metrics:   opts.Metrics,
	}
}

// MergeWithLocalData reconciles one batch of server patients. Evaluation
// and writes share a transaction, so a failed write leaves the batch
// unapplied.
func (s *Service) MergeWithLocalData(ctx context.Context, payloads []PatientPayload) (models.MergeSummary, error) {
	release, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		return models.MergeSummary{}, err
	}
	defer release()

	start := time.Now()
	var result MergeResult
	err = s.store.Transaction(ctx, func(tx Store) error {
		var mergeErr error
		result, mergeErr = s.merger.Merge(ctx, tx, payloads)
		return mergeErr
	})
	s.metrics.ObserveMerge(entityName, len(result.Applied), len(result.Skipped), len(result.Invalid), time.Since(start), err)
	if err != nil {
		logger.Log.WithError(err).WithField("records", len(payloads)).Error("patient merge failed")
		return models.MergeSummary{}, asStoreUnavailable("merge transaction", err)
	}

	summary := models.NewMergeSummary(len(payloads), result.Applied, result.Skipped)
	for _, invalid := range result.Invalid {
		summary.AddInvalid(invalid.Index, invalid.RecordID, invalid.reason.Error())
	}
	logger.Log.WithFields(summary.LogFields()).Info("patient batch merged")

	if s.publisher != nil && len(summary.Applied) > 0 {
		// Publish failures are logged by the helper; the merge itself is committed.
		_ = kafka.PublishWithFallback(ctx, s.publisher, s.dlq, models.EventPatientsMerged, sourceName, summary.EventData())
	}
	return summary, nil
}

func (s *Service) Search(ctx context.Context, query string) ([]SearchResult, error) {
	return s.searcher.Search(ctx, query)
}
