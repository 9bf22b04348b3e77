// Package quota enforces per-identity upload ceilings: uploads per hour,
// uploads per day, and cumulative stored bytes.
//
// Windows are fixed, not sliding: the hourly counter lives in a bucket named
// by the wall-clock hour and the daily counter in a bucket named by the date,
// so both reset on window rollover. Check is a soft read used before
// credential issuance to fail fast; Commit is the authoritative, atomic
// increment-with-ceiling performed only after an upload has been verified.
// A credential that is issued but never used therefore consumes no quota.
package quota

import "context"

// Ceilings holds the per-identity limits.
type Ceilings struct {
	UploadsPerHour int64
	UploadsPerDay  int64
	MaxTotalBytes  int64
}

// DefaultCeilings returns the design defaults: 50 uploads/hour,
// 200 uploads/day, 10 GiB cumulative.
func DefaultCeilings() Ceilings {
	return Ceilings{
		UploadsPerHour: 50,
		UploadsPerDay:  200,
		MaxTotalBytes:  10 << 30,
	}
}

// Store tracks quota counters for identities.
type Store interface {
	// Check reads the counters and reports whether an upload of sizeBytes
	// would fit. It mutates nothing; a passing Check does not reserve
	// anything. Denials wrap common.ErrQuotaExceeded.
	Check(ctx context.Context, identity string, sizeBytes int64) error

	// Commit atomically increments the counters, denying if any ceiling
	// would be exceeded. Two racing commits for the same identity can never
	// jointly exceed a ceiling. Denials wrap common.ErrQuotaExceeded.
	Commit(ctx context.Context, identity string, sizeBytes int64) error

	// Release undoes a previous Commit whose metadata record could not be
	// created. Counters never go below zero.
	Release(ctx context.Context, identity string, sizeBytes int64) error
}
