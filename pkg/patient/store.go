package patient

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract the merge and search engines consume.
// GetPatient returns ErrNotFound when no local copy exists.
type Store interface {
	GetPatient(ctx context.Context, id uuid.UUID) (Patient, error)
	SavePatients(ctx context.Context, patients []Patient) error
	SaveAddresses(ctx context.Context, addresses []Address) error
	// ReplacePhoneNumbers deletes every number owned by patientIDs, then
	// inserts numbers.
	ReplacePhoneNumbers(ctx context.Context, patientIDs []uuid.UUID, numbers []PhoneNumber) error

	SearchByName(ctx context.Context, query string, status string, limit int) ([]SearchResult, error)
	SearchByIDs(ctx context.Context, ids []uuid.UUID, status string) ([]SearchResult, error)
	FuzzySearch(ctx context.Context, query string, limit int) ([]SearchResult, error)
	NameAndIDs(ctx context.Context, status string) ([]NameAndID, error)
}

// TxStore runs fn against a Store bound to a single transaction.
type TxStore interface {
	Store
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
