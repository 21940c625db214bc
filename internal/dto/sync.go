package dto

import (
	"time"

	"github.com/ratewatch/currency-rates-service/internal/core/domain"
)

// SyncResponse defines the structure for the single-provider sync trigger response.
type SyncResponse struct {
	Status        string `json:"status"`
	Provider      string `json:"provider"`
	RecordsSynced int    `json:"records_synced"`
}

// SyncOutcomeResponse carries one provider's result within a sync-all run.
type SyncOutcomeResponse struct {
	Provider      string `json:"provider"`
	Status        string `json:"status"`
	RecordsSynced int    `json:"records_synced"`
	Error         string `json:"error,omitempty"`
}

// SyncAllResponse defines the structure for the sync-all trigger response.
// Status is "ok" when every provider succeeded, "partial" when some failed,
// "error" when all did.
type SyncAllResponse struct {
	Status    string                `json:"status"`
	Providers []SyncOutcomeResponse `json:"providers"`
}

// ToSyncAllResponse converts per-provider domain.SyncOutcome values to a SyncAllResponse DTO
func ToSyncAllResponse(outcomes []domain.SyncOutcome) SyncAllResponse {
	providers := make([]SyncOutcomeResponse, len(outcomes))
	failed := 0
	for i, outcome := range outcomes {
		providers[i] = SyncOutcomeResponse{
			Provider:      outcome.Provider,
			Status:        "ok",
			RecordsSynced: outcome.Records,
		}
		if outcome.Err != nil {
			failed++
			providers[i].Status = "error"
			providers[i].Error = outcome.Err.Error()
		}
	}
	status := "ok"
	switch {
	case failed == len(outcomes) && failed > 0:
		status = "error"
	case failed > 0:
		status = "partial"
	}
	return SyncAllResponse{Status: status, Providers: providers}
}

// ProviderStatusResponse describes one registered provider in the health response.
type ProviderStatusResponse struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	LastSync    *string `json:"last_sync"`
	RatesCount  int64   `json:"rates_count"`
}

// HealthResponse defines the structure for the health endpoint response.
type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Providers []ProviderStatusResponse `json:"providers"`
}

// ToHealthResponse converts provider statuses to a HealthResponse DTO
func ToHealthResponse(version string, statuses []domain.ProviderStatus) HealthResponse {
	providers := make([]ProviderStatusResponse, len(statuses))
	for i, status := range statuses {
		providers[i] = ProviderStatusResponse{
			Name:        status.Name,
			Description: status.Description,
			RatesCount:  status.RatesCount,
		}
		if status.LastSync != nil {
			formatted := status.LastSync.Format(time.RFC3339)
			providers[i].LastSync = &formatted
		}
	}
	return HealthResponse{Status: "ok", Version: version, Providers: providers}
}
