package protocol

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/simple-clinic/clinic-sync/pkg/common/logger"
	"github.com/simple-clinic/clinic-sync/pkg/syncstatus"
)

type MergeResult struct {
	Applied []uuid.UUID
	Skipped []uuid.UUID
	Invalid []ValidationError
}

type Merger struct{}

func NewMerger() *Merger {
	return &Merger{}
}

type mergeBatch struct {
	protocols []Protocol
	index     map[uuid.UUID]int
	drugs     map[uuid.UUID][]ProtocolDrug
}

func (b *mergeBatch) add(payload ProtocolPayload) {
	protocol := payload.ToDatabaseModel()
	if pos, seen := b.index[protocol.ID]; seen {
		b.protocols[pos] = protocol
	} else {
		b.index[protocol.ID] = len(b.protocols)
		b.protocols = append(b.protocols, protocol)
	}

	drugs := make([]ProtocolDrug, 0, len(payload.Drugs))
	for order, d := range payload.Drugs {
		drug := d.ToDatabaseModel(order)
		drug.ProtocolID = protocol.ID
		drugs = append(drugs, drug)
	}
	b.drugs[protocol.ID] = drugs
}

// Merge applies every protocol whose local copy may be overwritten. An
// accepted protocol replaces its whole drug list; drug order is the
// position in the payload.
func (m *Merger) Merge(ctx context.Context, store Store, payloads []ProtocolPayload) (MergeResult, error) {
	var result MergeResult
	batch := &mergeBatch{index: make(map[uuid.UUID]int), drugs: make(map[uuid.UUID][]ProtocolDrug)}

	for i, payload := range payloads {
		if err := ctx.Err(); err != nil {
			return MergeResult{}, err
		}

		if err := validate(i, payload); err != nil {
			var ve ValidationError
			errors.As(err, &ve)
			result.Invalid = append(result.Invalid, ve)
			logger.Log.WithError(err).Warn("rejected invalid protocol payload")
			continue
		}

		local, err := store.GetProtocol(ctx, payload.ID)
		exists := true
		if errors.Is(err, ErrNotFound) {
			exists = false
		} else if err != nil {
			return MergeResult{}, asStoreUnavailable("get protocol", err)
		}

		if !syncstatus.CanOverwrite(local.SyncStatus, exists) {
			result.Skipped = append(result.Skipped, payload.ID)
			logger.Log.WithFields(map[string]interface{}{
				"protocol_id": payload.ID,
				"sync_status": local.SyncStatus.String(),
			}).Debug("skipping server protocol, local change outstanding")
			continue
		}

		if _, seen := batch.index[payload.ID]; !seen {
			result.Applied = append(result.Applied, payload.ID)
		}
		batch.add(payload)
	}

	if len(batch.protocols) == 0 {
		return result, nil
	}
	if err := store.SaveProtocols(ctx, batch.protocols); err != nil {
		return MergeResult{}, asStoreUnavailable("save protocols", err)
	}
	ids := make([]uuid.UUID, 0, len(batch.protocols))
	var drugs []ProtocolDrug
	for _, p := range batch.protocols {
		ids = append(ids, p.ID)
		drugs = append(drugs, batch.drugs[p.ID]...)
	}
	if err := store.ReplaceDrugs(ctx, ids, drugs); err != nil {
		return MergeResult{}, asStoreUnavailable("replace protocol drugs", err)
	}
	return result, nil
}

func validate(index int, payload ProtocolPayload) error {
	invalid := func(reason error) error {
		return ValidationError{Index: index, RecordID: payload.ID, reason: reason}
	}

	if payload.ID == uuid.Nil {
		return invalid(errMissingID)
	}
	for _, d := range payload.Drugs {
		switch {
		case d.ID == uuid.Nil:
			return invalid(errMissingDrugID)
		case d.Name == "":
			return invalid(errMissingDrug)
		case d.ProtocolID != uuid.Nil && d.ProtocolID != payload.ID:
			return invalid(errForeignDrug)
		}
	}
	return nil
}

func asStoreUnavailable(op string, err error) error {
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return storeUnavailable(op, err)
}
