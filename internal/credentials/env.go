package credentials

import (
	"os"
)

// Environment variables read by NewEnvStore.
const (
	EnvAccess  = "EVENTPIX_ACCESS"
	EnvRefresh = "EVENTPIX_REFRESH"
)

// NewEnvStore returns an in-memory store seeded from EVENTPIX_ACCESS and
// EVENTPIX_REFRESH. Refreshed tokens live only as long as the process.
func NewEnvStore() *MemoryStore {
	s := NewMemoryStore()
	s.creds = Credentials{
		Access:  os.Getenv(EnvAccess),
		Refresh: os.Getenv(EnvRefresh),
	}
	return s
}
