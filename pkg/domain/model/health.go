package model

// HealthStatus is the health check response. Recording tells probes
// whether run history is being persisted on this instance.
type HealthStatus struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Recording bool   `json:"recording"`
}
