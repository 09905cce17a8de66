package protocol

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/simple-clinic/clinic-sync/pkg/common/kafka"
	"github.com/simple-clinic/clinic-sync/pkg/common/logger"
	"github.com/simple-clinic/clinic-sync/pkg/common/models"
	"github.com/simple-clinic/clinic-sync/pkg/observability/metrics"
	"github.com/simple-clinic/clinic-sync/pkg/synclock"
)

const (
	entityName = "protocol"
	lockKey    = "protocols"
	sourceName = "protocol-sync-service"
)

type ServiceOptions struct {
	Locker    synclock.Locker
	LockTTL   time.Duration
	Publisher kafka.Publisher
	DLQ       kafka.Publisher
	Metrics   *metrics.Metrics
}

type Service struct {
	store     TxStore
	merger    *Merger
	defaults  []DrugAndDosages
	locker    synclock.Locker
	lockTTL   time.Duration
	publisher kafka.Publisher
	dlq       kafka.Publisher
	metrics   *metrics.Metrics
}

// NewService falls back to DefaultDrugs when defaults is empty.
func NewService(store TxStore, defaults []DrugAndDosages, opts ServiceOptions) *Service {
	if len(defaults) == 0 {
		defaults = DefaultDrugs()
	}
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
		defaults:  defaults,
		locker:    locker,
		lockTTL:   ttl,
		publisher: opts.Publisher,
		dlq:       opts.DLQ,
		metrics:   opts.Metrics,
	}
}

func (s *Service) MergeWithLocalData(ctx context.Context, payloads []ProtocolPayload) (models.MergeSummary, error) {
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
		logger.Log.WithError(err).WithField("records", len(payloads)).Error("protocol merge failed")
		return models.MergeSummary{}, asStoreUnavailable("merge transaction", err)
	}

	summary := models.NewMergeSummary(len(payloads), result.Applied, result.Skipped)
	for _, invalid := range result.Invalid {
		summary.AddInvalid(invalid.Index, invalid.RecordID, invalid.reason.Error())
	}
	logger.Log.WithFields(summary.LogFields()).Info("protocol batch merged")

	if s.publisher != nil && len(summary.Applied) > 0 {
		// Publish failures are logged by the helper; the merge itself is committed.
		_ = kafka.PublishWithFallback(ctx, s.publisher, s.dlq, models.EventProtocolsMerged, sourceName, summary.EventData())
	}
	return summary, nil
}

// DrugsForProtocolOrDefault returns the grouped drugs of protocol id, or
// the default list when id is nil or the protocol has no drugs.
func (s *Service) DrugsForProtocolOrDefault(ctx context.Context, id *uuid.UUID) ([]DrugAndDosages, error) {
	if id == nil || *id == uuid.Nil {
		return cloneDrugs(s.defaults), nil
	}
	drugs, err := s.store.DrugsForProtocol(ctx, *id)
	if err != nil {
		return nil, asStoreUnavailable("drugs for protocol", err)
	}
	if len(drugs) == 0 {
		return cloneDrugs(s.defaults), nil
	}
	return GroupDrugs(drugs), nil
}

func (s *Service) DefaultDrugs() []DrugAndDosages {
	return cloneDrugs(s.defaults)
}
