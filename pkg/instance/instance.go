package instance

import (
	"os"

	"github.com/handcar/handcar-backend/pkg/env"
)

// EnvWorkerID names the variable that distinguishes replicas in logs.
const EnvWorkerID = "HANDCAR_WORKER_ID"

// GetID returns the worker instance identifier, falling back to the hostname.
func GetID() string {
	if id := env.Get(EnvWorkerID, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
