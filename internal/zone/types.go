package zone

import "github.com/evanofslack/clouddns-console/internal/provider"

// RecordForm is record input as submitted by a user, before validation.
type RecordForm struct {
	Name     string
	Type     string
	Data     string
	TTL      string
	Priority string
	Comment  string
}

// UpdateForm holds the fields an existing record may change. Empty fields are
// left untouched.
type UpdateForm struct {
	Data    string
	TTL     string
	Comment string
}

type DomainView struct {
	Domain  provider.Domain   `json:"domain"`
	Records []provider.Record `json:"records"`
}

// Report is the outcome of a best-effort bulk mutation.
type Report struct {
	Domain    string            `json:"domain"`
	Attempted int               `json:"attempted"`
	Updated   int               `json:"updated"`
	Failures  []OperationResult `json:"failures,omitempty"`
}

func (r Report) Failed() int {
	return len(r.Failures)
}

type OperationResult struct {
	Record provider.Record `json:"record"`
	Op     string          `json:"op"`
	Error  string          `json:"error"`
}
