package models

import "time"

// BlacklistEntry bars an IP address from attempting login. Presence of an
// entry blocks all attempts from that address regardless of credentials.
type BlacklistEntry struct {
	IPAddress string
	AddedAt   time.Time
}

// Expired reports whether the entry has outlived ttl. A zero ttl means
// entries never expire.
func (e *BlacklistEntry) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.After(e.AddedAt.Add(ttl))
}
