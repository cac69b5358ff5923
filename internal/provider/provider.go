package provider

import (
	"context"
	"errors"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownAccount = errors.New("unknown account")
)

// Provider is a handle to the remote DNS API bound to a single account.
// Implementations must not change the bound account after construction.
type Provider interface {
	DefaultAccount() string
	ListDomains(ctx context.Context) ([]Domain, error)
	GetDomain(ctx context.Context, name string) (Domain, error)
	CreateDomain(ctx context.Context, name string, ttl int, email string) (Domain, error)
	DeleteDomain(ctx context.Context, domainID string) error
	ListRecords(ctx context.Context, domainID string) ([]Record, error)
	GetRecord(ctx context.Context, domainID, recordID string) (Record, error)
	CreateRecord(ctx context.Context, domainID string, record RecordInput) (Record, error)
	CreateRecords(ctx context.Context, domainID string, records []RecordInput) ([]Record, error)
	UpdateRecord(ctx context.Context, domainID, recordID string, update RecordUpdate) error
	DeleteRecord(ctx context.Context, domainID, recordID string) error
}

// AccountScoper is implemented by providers that can switch accounts natively.
// ForAccount returns a new handle and leaves the receiver untouched.
type AccountScoper interface {
	ForAccount(ctx context.Context, accountID string) (Provider, error)
}

// BaseURLRebaser is implemented by providers whose account lives in the API
// base path. It allows account switching by rewriting that path.
type BaseURLRebaser interface {
	BaseURL() string
	WithBaseURL(baseURL string) (Provider, error)
}

type AccountLister interface {
	ListAccounts(ctx context.Context) ([]Account, error)
}

type Account struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type Domain struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TTL          int    `json:"ttl,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
	Comment      string `json:"comment,omitempty"`
	AccountID    string `json:"accountId,omitempty"`
}

type Record struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Data     string `json:"data"`
	TTL      int    `json:"ttl"`
	Priority *int   `json:"priority,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

type RecordInput struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Data     string `json:"data"`
	TTL      int    `json:"ttl"`
	Priority *int   `json:"priority,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// RecordUpdate carries the fields the API allows to change on an existing
// record. Nil fields are left untouched.
type RecordUpdate struct {
	Data    *string `json:"data,omitempty"`
	TTL     *int    `json:"ttl,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

var priorityTypes = mapset.NewSet("MX", "SRV")

// HasPriority reports whether records of type t carry a priority.
func HasPriority(t string) bool {
	return priorityTypes.Contains(strings.ToUpper(t))
}
