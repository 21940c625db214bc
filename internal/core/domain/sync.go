package domain

import "time"

// Sync log status values. Failed runs are stored as "error: <cause>".
const (
	SyncStatusSuccess = "success"
	SyncStatusSeeded  = "seeded"
)

// SyncOutcome is the per-provider result of one synchronization run.
type SyncOutcome struct {
	Provider string `json:"provider"`
	Records  int    `json:"records"`
	Err      error  `json:"-"`
}

// ProviderStatus describes one registered provider for health reporting.
type ProviderStatus struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	LastSync    *time.Time `json:"lastSync,omitempty"`
	RatesCount  int64      `json:"ratesCount"`
}
