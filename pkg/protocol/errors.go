package protocol

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("protocol not found")
	ErrStoreUnavailable = errors.New("protocol store unavailable")

	errMissingID     = errors.New("id required")
	errMissingDrugID = errors.New("protocol drug id required")
	errMissingDrug   = errors.New("protocol drug name required")
	errForeignDrug   = errors.New("protocol drug belongs to another protocol")
)

type ValidationError struct {
	Index    int
	RecordID uuid.UUID
	reason   error
}

func (e ValidationError) Error() string {
	if e.RecordID == uuid.Nil {
		return fmt.Sprintf("protocol payload %d: %s", e.Index, e.reason)
	}
	return fmt.Sprintf("protocol payload %s: %s", e.RecordID, e.reason)
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

func storeUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
