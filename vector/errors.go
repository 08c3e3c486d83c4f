package vector

import (
	"fmt"

	errorskg "github.com/sweetpotato0/nyaya/errors"
)

var errNoStore = fmt.Errorf("vector store not configured: %w", errorskg.ErrUnavailable)
