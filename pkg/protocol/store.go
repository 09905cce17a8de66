package protocol

import (
	"context"

	"github.com/google/uuid"
)

type Store interface {
	GetProtocol(ctx context.Context, id uuid.UUID) (Protocol, error)
	SaveProtocols(ctx context.Context, protocols []Protocol) error
	// ReplaceDrugs deletes every drug owned by protocolIDs, then inserts drugs.
	ReplaceDrugs(ctx context.Context, protocolIDs []uuid.UUID, drugs []ProtocolDrug) error
	// DrugsForProtocol returns live drugs ordered by ascending sort order.
	DrugsForProtocol(ctx context.Context, id uuid.UUID) ([]ProtocolDrug, error)
}

type TxStore interface {
	Store
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
