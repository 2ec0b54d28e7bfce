package implementations

import (
	"fmt"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

// storeError marks a driver failure with the store-failure sentinel while
// keeping the underlying cause unwrappable.
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreFailure, err)
}
