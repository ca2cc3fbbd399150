package models

// DailyLimitRecord is the persisted per-day usage record.
// ViewedIDs has set semantics; order is first-view order.
type DailyLimitRecord struct {
	Date        string   `json:"date"` // YYYY-MM-DD, device-local
	ViewedIDs   []string `json:"viewedIds"`
	SearchCount int      `json:"searchCount"`
}

// HasViewed reports whether id was already viewed on Date.
func (r *DailyLimitRecord) HasViewed(id string) bool {
	for _, v := range r.ViewedIDs {
		if v == id {
			return true
		}
	}
	return false
}

// LimitStatus summarizes the daily quotas for display.
type LimitStatus struct {
	Date              string `json:"date"`
	ViewsUsed         int    `json:"views_used"`
	ViewsRemaining    int    `json:"views_remaining"`
	SearchesUsed      int    `json:"searches_used"`
	SearchesRemaining int    `json:"searches_remaining"`
	LimitReached      bool   `json:"limit_reached"`
}
