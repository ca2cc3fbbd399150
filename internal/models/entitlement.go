package models

// EntitlementState holds the two persisted entitlement slots.
type EntitlementState struct {
	Override        bool `json:"override"`
	ConfirmedRemote bool `json:"confirmed_remote"`
}

// IsPremium applies the precedence: an override wins, then the last
// confirmed remote status, then false.
func (s EntitlementState) IsPremium() bool {
	if s.Override {
		return true
	}
	return s.ConfirmedRemote
}

// LedgerStatus is what the purchase ledger reports for a user.
type LedgerStatus struct {
	Active bool `json:"active"`
}
