package protocol

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/simple-clinic/clinic-sync/pkg/syncstatus"
)

type fakeStore struct {
	mu    sync.Mutex
	calls map[string]int

	local map[uuid.UUID]Protocol
	drugs map[uuid.UUID][]ProtocolDrug

	savedProtocols [][]Protocol
	replacedOwners [][]uuid.UUID
	replacedDrugs  [][]ProtocolDrug

	getErr   error
	saveErr  error
	drugsErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		calls: make(map[string]int),
		local: make(map[uuid.UUID]Protocol),
		drugs: make(map[uuid.UUID][]ProtocolDrug),
	}
}

func (f *fakeStore) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeStore) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeStore) writes() int {
	return f.called("SaveProtocols") + f.called("ReplaceDrugs")
}

func (f *fakeStore) withLocal(id uuid.UUID, status syncstatus.Status) {
	f.local[id] = Protocol{ID: id, Name: "local", SyncStatus: status}
}

func (f *fakeStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	f.record("Transaction")
	return fn(f)
}

func (f *fakeStore) GetProtocol(ctx context.Context, id uuid.UUID) (Protocol, error) {
	f.record("GetProtocol")
	if f.getErr != nil {
		return Protocol{}, f.getErr
	}
	p, ok := f.local[id]
	if !ok {
		return Protocol{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) SaveProtocols(ctx context.Context, protocols []Protocol) error {
	f.record("SaveProtocols")
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedProtocols = append(f.savedProtocols, protocols)
	return nil
}

func (f *fakeStore) ReplaceDrugs(ctx context.Context, protocolIDs []uuid.UUID, drugs []ProtocolDrug) error {
	f.record("ReplaceDrugs")
	f.replacedOwners = append(f.replacedOwners, protocolIDs)
	f.replacedDrugs = append(f.replacedDrugs, drugs)
	return nil
}

func (f *fakeStore) DrugsForProtocol(ctx context.Context, id uuid.UUID) ([]ProtocolDrug, error) {
	f.record("DrugsForProtocol")
	if f.drugsErr != nil {
		return nil, f.drugsErr
	}
	return f.drugs[id], nil
}

func drugPayload(protocolID uuid.UUID, name, dosage string) ProtocolDrugPayload {
	return ProtocolDrugPayload{ID: uuid.New(), ProtocolID: protocolID, Name: name, Dosage: dosage}
}

func protocolPayload(id uuid.UUID, drugs ...ProtocolDrugPayload) ProtocolPayload {
	return ProtocolPayload{ID: id, Name: "Hypertension", FollowUpDays: 30, Drugs: drugs}
}
