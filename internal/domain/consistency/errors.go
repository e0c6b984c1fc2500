package consistency

import "errors"

// ErrAuditInProgress is returned when a forced run overlaps a pass that
// is still executing. Scheduled triggers treat this as a silent skip.
var ErrAuditInProgress = errors.New("audit already in progress")
