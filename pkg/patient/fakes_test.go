package patient

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/simple-clinic/clinic-sync/pkg/syncstatus"
)

// fakeStore records every call and serves canned data.
type fakeStore struct {
	mu sync.Mutex

	patients map[uuid.UUID]Patient
	getErr   error
	saveErr  error

	savedPatients  [][]Patient
	savedAddresses [][]Address
	replacedOwners [][]uuid.UUID
	replacedPhones [][]PhoneNumber

	byName     []SearchResult
	byNameErr  error
	fuzzy      []SearchResult
	fuzzyErr   error
	fuzzyDelay time.Duration
	byIDs      []SearchResult
	nameIndex  []NameAndID

	calls map[string]int
	args  map[string][]interface{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		patients: make(map[uuid.UUID]Patient),
		calls:    make(map[string]int),
		args:     make(map[string][]interface{}),
	}
}

func (f *fakeStore) record(name string, arg interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	f.args[name] = append(f.args[name], arg)
}

func (f *fakeStore) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeStore) writes() int {
	return f.called("SavePatients") + f.called("SaveAddresses") + f.called("ReplacePhoneNumbers")
}

func (f *fakeStore) withLocal(id uuid.UUID, status syncstatus.Status, name string) {
	f.patients[id] = Patient{ID: id, FullName: name, SyncStatus: status}
}

func (f *fakeStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	f.record("Transaction", nil)
	return fn(f)
}

func (f *fakeStore) GetPatient(ctx context.Context, id uuid.UUID) (Patient, error) {
	f.record("GetPatient", id)
	if f.getErr != nil {
		return Patient{}, f.getErr
	}
	p, ok := f.patients[id]
	if !ok {
		return Patient{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) SavePatients(ctx context.Context, patients []Patient) error {
	f.record("SavePatients", patients)
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedPatients = append(f.savedPatients, patients)
	return nil
}

func (f *fakeStore) SaveAddresses(ctx context.Context, addresses []Address) error {
	f.record("SaveAddresses", addresses)
	f.savedAddresses = append(f.savedAddresses, addresses)
	return nil
}

func (f *fakeStore) ReplacePhoneNumbers(ctx context.Context, patientIDs []uuid.UUID, numbers []PhoneNumber) error {
	f.record("ReplacePhoneNumbers", numbers)
	f.replacedOwners = append(f.replacedOwners, patientIDs)
	f.replacedPhones = append(f.replacedPhones, numbers)
	return nil
}

func (f *fakeStore) SearchByName(ctx context.Context, query string, status string, limit int) ([]SearchResult, error) {
	f.record("SearchByName", query)
	return f.byName, f.byNameErr
}

func (f *fakeStore) SearchByIDs(ctx context.Context, ids []uuid.UUID, status string) ([]SearchResult, error) {
	f.record("SearchByIDs", ids)
	return f.byIDs, nil
}

func (f *fakeStore) FuzzySearch(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	f.record("FuzzySearch", query)
	if f.fuzzyDelay > 0 {
		select {
		case <-time.After(f.fuzzyDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.fuzzy, f.fuzzyErr
}

func (f *fakeStore) NameAndIDs(ctx context.Context, status string) ([]NameAndID, error) {
	f.record("NameAndIDs", status)
	return f.nameIndex, nil
}

// stubMatcher returns fixed ids.
type stubMatcher struct {
	ids   []uuid.UUID
	err   error
	calls int
}

func (m *stubMatcher) Filter(ctx context.Context, query string, candidates []NameAndID, limit int) ([]uuid.UUID, error) {
	m.calls++
	return m.ids, m.err
}

func serverPatient(id, addressID uuid.UUID, name string, phones []PhoneNumberPayload) PatientPayload {
	now := time.Date(2018, 7, 1, 0, 0, 0, 0, time.UTC)
	return PatientPayload{
		ID:        id,
		FullName:  name,
		Gender:    "female",
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
		Address: &AddressPayload{
			ID:              addressID,
			ColonyOrVillage: "Bathinda",
			District:        "Bathinda",
			State:           "Punjab",
			Country:         "India",
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		PhoneNumbers: phones,
	}
}

func phonePayload(number string) PhoneNumberPayload {
	now := time.Date(2018, 7, 1, 0, 0, 0, 0, time.UTC)
	return PhoneNumberPayload{ID: uuid.New(), Number: number, Type: PhoneTypeMobile, Active: true, CreatedAt: now, UpdatedAt: now}
}

func searchResult(name string) SearchResult {
	return SearchResult{ID: uuid.New(), FullName: name, Status: StatusActive}
}

func resultIDs(results []SearchResult) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	return ids
}
