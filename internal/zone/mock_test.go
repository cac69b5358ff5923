package zone

import (
	"context"
	"fmt"

	"github.com/evanofslack/clouddns-console/internal/account"
	"github.com/evanofslack/clouddns-console/internal/metrics"
	"github.com/evanofslack/clouddns-console/internal/provider"
	"github.com/evanofslack/clouddns-console/internal/transform"
)

// MockProvider is an in-memory provider bound to account "1".
type MockProvider struct {
	domains map[string]provider.Domain
	records map[string][]provider.Record

	createDomainErr  error
	createRecordsErr error
	listRecordsErr   error
	updateErr        map[string]error

	calls   []string
	batches [][]provider.RecordInput
	updates map[string]provider.RecordUpdate
	nextID  int
}

func newMockProvider() *MockProvider {
	return &MockProvider{
		domains:   map[string]provider.Domain{},
		records:   map[string][]provider.Record{},
		updateErr: map[string]error{},
		updates:   map[string]provider.RecordUpdate{},
	}
}

func (m *MockProvider) addDomain(name string, records ...provider.Record) provider.Domain {
	m.nextID++
	d := provider.Domain{ID: fmt.Sprintf("d%d", m.nextID), Name: name, TTL: 300, AccountID: "1"}
	m.domains[name] = d
	m.records[d.ID] = records
	return d
}

func (m *MockProvider) called(op string) int {
	n := 0
	for _, c := range m.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (m *MockProvider) DefaultAccount() string { return "1" }

func (m *MockProvider) ListDomains(ctx context.Context) ([]provider.Domain, error) {
	m.calls = append(m.calls, "ListDomains")
	var out []provider.Domain
	for _, d := range m.domains {
		out = append(out, d)
	}
	return out, nil
}

func (m *MockProvider) GetDomain(ctx context.Context, name string) (provider.Domain, error) {
	m.calls = append(m.calls, "GetDomain")
	d, ok := m.domains[name]
	if !ok {
		return provider.Domain{}, fmt.Errorf("domain %s: %w", name, provider.ErrNotFound)
	}
	return d, nil
}

func (m *MockProvider) CreateDomain(ctx context.Context, name string, ttl int, email string) (provider.Domain, error) {
	m.calls = append(m.calls, "CreateDomain")
	if m.createDomainErr != nil {
		return provider.Domain{}, m.createDomainErr
	}
	d := m.addDomain(name)
	d.TTL = ttl
	d.EmailAddress = email
	m.domains[name] = d
	return d, nil
}

func (m *MockProvider) DeleteDomain(ctx context.Context, domainID string) error {
	m.calls = append(m.calls, "DeleteDomain")
	for name, d := range m.domains {
		if d.ID == domainID {
			delete(m.domains, name)
			return nil
		}
	}
	return provider.ErrNotFound
}

func (m *MockProvider) ListRecords(ctx context.Context, domainID string) ([]provider.Record, error) {
	m.calls = append(m.calls, "ListRecords")
	if m.listRecordsErr != nil {
		return nil, m.listRecordsErr
	}
	return m.records[domainID], nil
}

func (m *MockProvider) GetRecord(ctx context.Context, domainID, recordID string) (provider.Record, error) {
	m.calls = append(m.calls, "GetRecord")
	for _, r := range m.records[domainID] {
		if r.ID == recordID {
			return r, nil
		}
	}
	return provider.Record{}, fmt.Errorf("record %s: %w", recordID, provider.ErrNotFound)
}

func (m *MockProvider) CreateRecord(ctx context.Context, domainID string, in provider.RecordInput) (provider.Record, error) {
	m.calls = append(m.calls, "CreateRecord")
	rec := provider.Record{
		ID:       fmt.Sprintf("r%d", len(m.records[domainID])+1),
		Name:     in.Name,
		Type:     in.Type,
		Data:     in.Data,
		TTL:      in.TTL,
		Priority: in.Priority,
		Comment:  in.Comment,
	}
	m.records[domainID] = append(m.records[domainID], rec)
	return rec, nil
}

func (m *MockProvider) CreateRecords(ctx context.Context, domainID string, batch []provider.RecordInput) ([]provider.Record, error) {
	m.calls = append(m.calls, "CreateRecords")
	m.batches = append(m.batches, batch)
	if m.createRecordsErr != nil {
		return nil, m.createRecordsErr
	}
	var out []provider.Record
	for _, in := range batch {
		rec, _ := m.CreateRecord(ctx, domainID, in)
		out = append(out, rec)
	}
	return out, nil
}

func (m *MockProvider) UpdateRecord(ctx context.Context, domainID, recordID string, update provider.RecordUpdate) error {
	m.calls = append(m.calls, "UpdateRecord")
	m.updates[recordID] = update
	return m.updateErr[recordID]
}

func (m *MockProvider) DeleteRecord(ctx context.Context, domainID, recordID string) error {
	m.calls = append(m.calls, "DeleteRecord")
	return nil
}

func newTestService() *Service {
	return NewService(transform.New(""), metrics.New(false), DuplicateTTL)
}

func scopeFor(p provider.Provider) account.Scope {
	return account.Scope{AccountID: p.DefaultAccount(), Provider: p}
}
