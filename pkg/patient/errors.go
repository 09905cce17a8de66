package patient

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("patient not found")
	ErrStoreUnavailable  = errors.New("patient store unavailable")
	ErrSearchUnavailable = errors.New("patient search unavailable")

	errMissingID        = errors.New("id required")
	errMissingAddress   = errors.New("address required")
	errMissingAddressID = errors.New("address id required")
	errMissingPhoneID   = errors.New("phone number id required")
)

// ValidationError rejects a single payload; the rest of its batch goes on.
type ValidationError struct {
	Index    int
	RecordID uuid.UUID
	reason   error
}

func (e ValidationError) Error() string {
	if e.RecordID == uuid.Nil {
		return fmt.Sprintf("patient payload %d: %s", e.Index, e.reason)
	}
	return fmt.Sprintf("patient payload %s: %s", e.RecordID, e.reason)
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

func searchUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrSearchUnavailable, op, err)
}
