package domain

// UnknownIdentity is the sentinel used when neither the peer address nor a
// forwarded address can be resolved. All such callers share one bucket.
const UnknownIdentity = "unknown"

// SecurityStatus is the reputation view exposed to operators
type SecurityStatus struct {
	SuspiciousIdentities  []string `json:"suspiciousIdentities"`
	BlockedIdentities     []string `json:"blockedIdentities"`
	ActiveRateWindowCount int      `json:"activeRateWindowCount"`
}
