package models

import "time"

// LoginAttempt is the attempt-ledger record for one (IP, device) pair.
// There is at most one record per pair; it is created on the first attempt
// from that pair, mutated on every subsequent attempt, and never deleted.
type LoginAttempt struct {
	ID           string
	ManagerID    *string // nil until the login name resolves to a manager
	Device       string  // opaque client-supplied fingerprint
	IPAddress    string
	AttemptedAt  time.Time // most recent attempt, success or failure
	FailureCount int       // consecutive failures since the last success
}
