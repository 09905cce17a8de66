package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/simple-clinic/clinic-sync/pkg/common/logger"
	"github.com/simple-clinic/clinic-sync/pkg/syncstatus"
)

type MergeResult struct {
	Applied []uuid.UUID
	Skipped []uuid.UUID
	Invalid []ValidationError
}

// Merger reconciles server payloads with local state. It holds no state
// between calls.
type Merger struct {
	dob *DateOfBirthValidator
	now func() time.Time
}

func NewMerger() *Merger {
	return &Merger{
		dob: NewDateOfBirthValidator(PayloadDateLayout),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// mergeBatch collects accepted writes. A later payload for the same
// patient replaces the earlier one along with its address and numbers.
type mergeBatch struct {
	patients     []Patient
	patientIndex map[uuid.UUID]int
	addresses    map[uuid.UUID]Address
	numbers      map[uuid.UUID][]PhoneNumber
}

func newMergeBatch() *mergeBatch {
	return &mergeBatch{
		patientIndex: make(map[uuid.UUID]int),
		addresses:    make(map[uuid.UUID]Address),
		numbers:      make(map[uuid.UUID][]PhoneNumber),
	}
}

func (b *mergeBatch) add(payload PatientPayload, dob *time.Time) {
	patient := payload.ToDatabaseModel(dob)
	if pos, seen := b.patientIndex[patient.ID]; seen {
		b.patients[pos] = patient
	} else {
		b.patientIndex[patient.ID] = len(b.patients)
		b.patients = append(b.patients, patient)
	}

	b.addresses[patient.ID] = payload.Address.ToDatabaseModel()

	numbers := make([]PhoneNumber, 0, len(payload.PhoneNumbers))
	for _, number := range payload.PhoneNumbers {
		numbers = append(numbers, number.ToDatabaseModel(patient.ID))
	}
	b.numbers[patient.ID] = numbers
}

// addressRows returns the addresses of the winning patients, one row per
// address id. Patients sharing an address id keep the last one written.
func (b *mergeBatch) addressRows() []Address {
	rows := make([]Address, 0, len(b.patients))
	index := make(map[uuid.UUID]int, len(b.patients))
	for _, p := range b.patients {
		address := b.addresses[p.ID]
		if pos, seen := index[address.ID]; seen {
			rows[pos] = address
			continue
		}
		index[address.ID] = len(rows)
		rows = append(rows, address)
	}
	return rows
}

func (b *mergeBatch) owners() ([]uuid.UUID, []PhoneNumber) {
	owners := make([]uuid.UUID, 0, len(b.patients))
	var numbers []PhoneNumber
	for _, p := range b.patients {
		owners = append(owners, p.ID)
		numbers = append(numbers, b.numbers[p.ID]...)
	}
	return owners, numbers
}

func appendOnce(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// Merge applies every payload whose local copy is absent, invalid or
// already reconciled. Writes are batched per entity type and issued only
// after the whole batch has been evaluated.
func (m *Merger) Merge(ctx context.Context, store Store, payloads []PatientPayload) (MergeResult, error) {
	var result MergeResult
	batch := newMergeBatch()

	for i, payload := range payloads {
		if err := ctx.Err(); err != nil {
			return MergeResult{}, err
		}

		dob, err := m.validate(i, payload)
		if err != nil {
			var ve ValidationError
			errors.As(err, &ve)
			result.Invalid = append(result.Invalid, ve)
			logger.Log.WithError(err).Warn("rejected invalid patient payload")
			continue
		}

		local, err := store.GetPatient(ctx, payload.ID)
		exists := true
		if errors.Is(err, ErrNotFound) {
			exists = false
		} else if err != nil {
			return MergeResult{}, asStoreUnavailable("get patient", err)
		}

		if !syncstatus.CanOverwrite(local.SyncStatus, exists) {
			result.Skipped = append(result.Skipped, payload.ID)
			logger.Log.WithFields(map[string]interface{}{
				"patient_id":  payload.ID,
				"sync_status": local.SyncStatus.String(),
			}).Debug("skipping server patient, local change outstanding")
			continue
		}

		batch.add(payload, dob)
		result.Applied = appendOnce(result.Applied, payload.ID)
	}

	if err := m.persist(ctx, store, batch); err != nil {
		return MergeResult{}, err
	}
	return result, nil
}

func (m *Merger) persist(ctx context.Context, store Store, batch *mergeBatch) error {
	if len(batch.patients) == 0 {
		return nil
	}
	if err := store.SaveAddresses(ctx, batch.addressRows()); err != nil {
		return asStoreUnavailable("save addresses", err)
	}
	if err := store.SavePatients(ctx, batch.patients); err != nil {
		return asStoreUnavailable("save patients", err)
	}
	owners, numbers := batch.owners()
	if err := store.ReplacePhoneNumbers(ctx, owners, numbers); err != nil {
		return asStoreUnavailable("replace phone numbers", err)
	}
	return nil
}

func (m *Merger) validate(index int, payload PatientPayload) (*time.Time, error) {
	invalid := func(reason error) error {
		return ValidationError{Index: index, RecordID: payload.ID, reason: reason}
	}

	if payload.ID == uuid.Nil {
		return nil, invalid(errMissingID)
	}
	if payload.Address == nil {
		return nil, invalid(errMissingAddress)
	}
	if payload.Address.ID == uuid.Nil {
		return nil, invalid(errMissingAddressID)
	}
	for _, number := range payload.PhoneNumbers {
		if number.ID == uuid.Nil {
			return nil, invalid(errMissingPhoneID)
		}
	}

	if payload.DateOfBirth == "" {
		return nil, nil
	}
	dob, result := m.dob.Validate(payload.DateOfBirth, m.now())
	if result != DOBValid {
		return nil, invalid(errors.New("date of birth " + result.String()))
	}
	return &dob, nil
}

func asStoreUnavailable(op string, err error) error {
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return storeUnavailable(op, err)
}
