package reconcile

import (
	"errors"
	"fmt"
)

// ErrNoMetadataAvailable is returned by Merge when no usable records are
// left at merge time. Fatal to automatic flows; the caller decides whether
// to retry fetching or fall back to manual entry.
var ErrNoMetadataAvailable = errors.New("no source records available")

// ErrInvalidRecord rejects a malformed provider payload. Callers drop the
// record and merge the rest.
type ErrInvalidRecord struct {
	Reason string
}

func (e *ErrInvalidRecord) Error() string {
	return fmt.Sprintf("invalid source record: %s", e.Reason)
}

// ErrOverrideNotApplicable reports a pin whose provider supplied no value
// for the pinned field. The prior selection for that field is kept.
type ErrOverrideNotApplicable struct {
	Field    Field
	Provider Provider
}

func (e *ErrOverrideNotApplicable) Error() string {
	return fmt.Sprintf("override not applicable: %s has no value for %s", e.Provider.DisplayName(), e.Field)
}
