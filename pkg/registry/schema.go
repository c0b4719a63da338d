// pkg/registry/schema.go
package registry

import (
	"fmt"
	"time"
)

type ImplementationStatus string

const (
	StatusCompleted ImplementationStatus = "completed"
	StatusPartial   ImplementationStatus = "partial"
	StatusPlanned   ImplementationStatus = "planned"
)

func ParseImplementationStatus(s string) (ImplementationStatus, error) {
	switch st := ImplementationStatus(s); st {
	case StatusCompleted, StatusPartial, StatusPlanned:
		return st, nil
	}
	return "", fmt.Errorf("unknown implementation status %q", s)
}

// SessionAccess says what an activity does with the ghostwriter session.
type SessionAccess string

const (
	SessionNone  SessionAccess = "none"
	SessionRead  SessionAccess = "read"
	SessionWrite SessionAccess = "write"
)

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one job type the process model can call: the variables
// it reads and writes, the error codes it throws and its session footprint.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus ImplementationStatus   `json:"implementationStatus"`
	Session              SessionAccess          `json:"session"`
	RateLimited          bool                   `json:"rateLimited,omitempty"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Tags                 []string               `json:"tags"`
}

// TimeoutDuration parses Timeout. It returns 0 when Timeout is empty or
// not a Go duration.
func (a Activity) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0
	}
	return d
}
