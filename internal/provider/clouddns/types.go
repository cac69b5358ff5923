package clouddns

import (
	"encoding/json"
	"fmt"
)

type domainJSON struct {
	ID           json.Number `json:"id,omitempty"`
	Name         string      `json:"name"`
	TTL          int         `json:"ttl,omitempty"`
	EmailAddress string      `json:"emailAddress,omitempty"`
	Comment      string      `json:"comment,omitempty"`
	AccountID    json.Number `json:"accountId,omitempty"`
}

type domainList struct {
	Domains      []domainJSON `json:"domains"`
	TotalEntries int          `json:"totalEntries,omitempty"`
}

type recordJSON struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	Data     string `json:"data,omitempty"`
	TTL      int    `json:"ttl,omitempty"`
	Priority *int   `json:"priority,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

type recordList struct {
	Records      []recordJSON `json:"records"`
	TotalEntries int          `json:"totalEntries,omitempty"`
}

type recordUpdateJSON struct {
	Data    *string `json:"data,omitempty"`
	TTL     *int    `json:"ttl,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// asyncJob is returned by every mutating call. The job is polled through
// CallbackURL until it leaves the RUNNING/INITIALIZED states.
type asyncJob struct {
	Status      string          `json:"status"`
	JobID       string          `json:"jobId"`
	CallbackURL string          `json:"callbackUrl"`
	Response    json.RawMessage `json:"response,omitempty"`
	Error       *jobError       `json:"error,omitempty"`
}

type jobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func (e *jobError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (code=%d): %s", e.Message, e.Code, e.Details)
	}
	return fmt.Sprintf("%s (code=%d)", e.Message, e.Code)
}

const (
	statusCompleted = "COMPLETED"
	statusError     = "ERROR"
)
