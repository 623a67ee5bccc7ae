package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Draft backends and collaborator
// adapters return these (optionally wrapped) so services can translate them
// into domain errors.
//
// - ErrNotFound: no draft or reference entry under the key
// - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
