package api

import (
	"encoding/json"
	"net/http"
	"time"
)

type healthInfo struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	InstanceID string `json:"instance_id"`
	Timestamp  string `json:"timestamp"`
}

// Health returns a liveness handler reporting the service name and instance.
func Health(service, instanceID string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(healthInfo{
			Status:     "pass",
			Service:    service,
			InstanceID: instanceID,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		})
	}
}
