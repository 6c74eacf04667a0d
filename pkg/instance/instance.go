package instance

import (
	"os"

	"github.com/warehouse-incentives/incentives-backend/pkg/env"
)

const defaultID = "incentives-0"

// GetID identifies this process in logs and cron lock values: WORKER_ID,
// then the hostname.
func GetID() string {
	if id, ok := env.Lookup("WORKER_ID"); ok {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return defaultID
}
