package schemastore

import "time"

// PathTimeouts holds one extension's path-expiry configuration, derived
// from its "_ten.path_timeout" manifest section (spec §4.5, invariant
// 7): in_path_timeout must outlive out_path_timeout plus the check
// interval plus one second, so an inbound command's path cannot expire
// before the outbound command it fanned out to does.
type PathTimeouts struct {
	InPathTimeout     time.Duration
	OutPathTimeout    time.Duration
	PathCheckInterval time.Duration
}

// minSlack is the "+ 1_000_000 microseconds" term spec.md's invariant
// names.
const minSlack = time.Second

// Normalize auto-raises InPathTimeout so the invariant holds, rather
// than rejecting an out-of-range manifest outright.
func (t *PathTimeouts) Normalize() {
	floor := t.OutPathTimeout + t.PathCheckInterval + minSlack
	if t.InPathTimeout <= floor {
		t.InPathTimeout = floor + 1
	}
}
