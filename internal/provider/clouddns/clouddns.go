package clouddns

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evanofslack/clouddns-console/internal/account"
	"github.com/evanofslack/clouddns-console/internal/config"
	"github.com/evanofslack/clouddns-console/internal/metrics"
	"github.com/evanofslack/clouddns-console/internal/provider"
)

type CloudDNSProvider struct {
	client  *client
	metrics *metrics.Metrics
	account string
}

func New(cfg config.DNS, metrics *metrics.Metrics) (*CloudDNSProvider, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("clouddns api token empty")
	}
	return newProvider(cfg.Endpoint, cfg.Token, &http.Client{Timeout: cfg.Timeout}, cfg.PollInterval, metrics)
}

func newProvider(baseURL, token string, h Httper, poll time.Duration, metrics *metrics.Metrics) (*CloudDNSProvider, error) {
	acct := account.AccountFromBaseURL(baseURL)
	if acct == "" {
		return nil, fmt.Errorf("clouddns endpoint %q does not end in an account id", baseURL)
	}
	return &CloudDNSProvider{
		client: &client{
			baseURL:      strings.TrimSuffix(baseURL, "/"),
			token:        token,
			http:         h,
			pollInterval: poll,
		},
		metrics: metrics,
		account: acct,
	}, nil
}

func (p *CloudDNSProvider) DefaultAccount() string {
	return p.account
}

func (p *CloudDNSProvider) BaseURL() string {
	return p.client.baseURL
}

// WithBaseURL returns a copy of the provider talking to baseURL. The
// receiver is left untouched.
func (p *CloudDNSProvider) WithBaseURL(baseURL string) (provider.Provider, error) {
	c := *p.client
	return newProvider(baseURL, c.token, c.http, c.pollInterval, p.metrics)
}

func (p *CloudDNSProvider) observe(operation string, start time.Time, err error) {
	p.metrics.IncDNSRequest(operation, err == nil)
	p.metrics.ObserveDNSRequest(operation, time.Since(start))
}

func (p *CloudDNSProvider) ListDomains(ctx context.Context) (domains []provider.Domain, err error) {
	slog.Info("Listing domains", "account", p.account)
	start := time.Now()
	defer func() { p.observe("read", start, err) }()

	err = p.client.paginate(ctx, "/domains", func(raw []byte) (int, int, error) {
		var page domainList
		if err := json.Unmarshal(raw, &page); err != nil {
			return 0, 0, fmt.Errorf("decode domains: %w", err)
		}
		for _, d := range page.Domains {
			domains = append(domains, toDomain(d))
		}
		return len(page.Domains), page.TotalEntries, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	slog.Debug("Listed domains", "account", p.account, "count", len(domains), "duration", time.Since(start))
	return domains, nil
}

func (p *CloudDNSProvider) GetDomain(ctx context.Context, name string) (domain provider.Domain, err error) {
	start := time.Now()
	defer func() { p.observe("read", start, err) }()

	var list domainList
	if err = p.client.do(ctx, http.MethodGet, "/domains", url.Values{"name": {name}}, nil, &list); err != nil {
		return provider.Domain{}, fmt.Errorf("failed to get domain %s: %w", name, err)
	}
	for _, d := range list.Domains {
		if strings.EqualFold(d.Name, name) {
			return toDomain(d), nil
		}
	}
	return provider.Domain{}, fmt.Errorf("domain %s: %w", name, provider.ErrNotFound)
}

func (p *CloudDNSProvider) CreateDomain(ctx context.Context, name string, ttl int, email string) (domain provider.Domain, err error) {
	slog.Info("Creating domain", "account", p.account, "domain", name, "ttl", ttl)
	start := time.Now()
	defer func() { p.observe("create", start, err) }()

	body := domainList{Domains: []domainJSON{{Name: name, TTL: ttl, EmailAddress: email}}}
	var created domainList
	if err = p.client.async(ctx, http.MethodPost, "/domains", body, &created); err != nil {
		return provider.Domain{}, fmt.Errorf("failed to create domain %s: %w", name, err)
	}
	if len(created.Domains) == 0 {
		err = fmt.Errorf("create domain %s: empty job response", name)
		return provider.Domain{}, err
	}
	slog.Debug("Created domain", "domain", name, "duration", time.Since(start))
	return toDomain(created.Domains[0]), nil
}

func (p *CloudDNSProvider) DeleteDomain(ctx context.Context, domainID string) (err error) {
	slog.Info("Deleting domain", "account", p.account, "domain_id", domainID)
	start := time.Now()
	defer func() { p.observe("delete", start, err) }()

	if err = p.client.async(ctx, http.MethodDelete, "/domains/"+url.PathEscape(domainID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete domain %s: %w", domainID, err)
	}
	slog.Debug("Deleted domain", "domain_id", domainID, "duration", time.Since(start))
	return nil
}

func (p *CloudDNSProvider) ListRecords(ctx context.Context, domainID string) (records []provider.Record, err error) {
	slog.Info("Getting DNS records", "account", p.account, "domain_id", domainID)
	start := time.Now()
	defer func() { p.observe("read", start, err) }()

	err = p.client.paginate(ctx, recordsPath(domainID), func(raw []byte) (int, int, error) {
		var page recordList
		if err := json.Unmarshal(raw, &page); err != nil {
			return 0, 0, fmt.Errorf("decode records: %w", err)
		}
		for _, r := range page.Records {
			records = append(records, toRecord(r))
		}
		return len(page.Records), page.TotalEntries, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list DNS records: %w", err)
	}
	slog.Debug("Retrieved DNS records", "domain_id", domainID, "count", len(records), "duration", time.Since(start))
	return records, nil
}

func (p *CloudDNSProvider) GetRecord(ctx context.Context, domainID, recordID string) (record provider.Record, err error) {
	start := time.Now()
	defer func() { p.observe("read", start, err) }()

	var r recordJSON
	if err = p.client.do(ctx, http.MethodGet, recordsPath(domainID)+"/"+url.PathEscape(recordID), nil, nil, &r); err != nil {
		return provider.Record{}, fmt.Errorf("failed to get DNS record %s: %w", recordID, err)
	}
	return toRecord(r), nil
}

func (p *CloudDNSProvider) CreateRecord(ctx context.Context, domainID string, record provider.RecordInput) (provider.Record, error) {
	created, err := p.CreateRecords(ctx, domainID, []provider.RecordInput{record})
	if err != nil {
		return provider.Record{}, err
	}
	if len(created) == 0 {
		return provider.Record{}, fmt.Errorf("create record %s: empty job response", record.Name)
	}
	return created[0], nil
}

// CreateRecords submits all records in a single request. Per-item outcome is
// decided by the API; a failed job fails the whole call.
func (p *CloudDNSProvider) CreateRecords(ctx context.Context, domainID string, records []provider.RecordInput) (out []provider.Record, err error) {
	slog.Info("Creating DNS records", "account", p.account, "domain_id", domainID, "count", len(records))
	start := time.Now()
	defer func() { p.observe("create", start, err) }()

	body := recordList{Records: make([]recordJSON, 0, len(records))}
	for _, r := range records {
		body.Records = append(body.Records, fromInput(r))
	}
	var created recordList
	if err = p.client.async(ctx, http.MethodPost, recordsPath(domainID), body, &created); err != nil {
		return nil, fmt.Errorf("failed to create DNS records: %w", err)
	}
	for _, r := range created.Records {
		out = append(out, toRecord(r))
	}
	slog.Debug("Created DNS records", "domain_id", domainID, "count", len(out), "duration", time.Since(start))
	return out, nil
}

func (p *CloudDNSProvider) UpdateRecord(ctx context.Context, domainID, recordID string, update provider.RecordUpdate) (err error) {
	slog.Info("Updating DNS record", "account", p.account, "domain_id", domainID, "record_id", recordID)
	start := time.Now()
	defer func() { p.observe("update", start, err) }()

	body := recordUpdateJSON{Data: update.Data, TTL: update.TTL, Comment: update.Comment}
	if err = p.client.async(ctx, http.MethodPut, recordsPath(domainID)+"/"+url.PathEscape(recordID), body, nil); err != nil {
		return fmt.Errorf("failed to update DNS record %s: %w", recordID, err)
	}
	slog.Debug("Updated DNS record", "record_id", recordID, "duration", time.Since(start))
	return nil
}

func (p *CloudDNSProvider) DeleteRecord(ctx context.Context, domainID, recordID string) (err error) {
	slog.Info("Deleting DNS record", "account", p.account, "domain_id", domainID, "record_id", recordID)
	start := time.Now()
	defer func() { p.observe("delete", start, err) }()

	if err = p.client.async(ctx, http.MethodDelete, recordsPath(domainID)+"/"+url.PathEscape(recordID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete DNS record %s: %w", recordID, err)
	}
	slog.Debug("Deleted DNS record", "record_id", recordID, "duration", time.Since(start))
	return nil
}

func recordsPath(domainID string) string {
	return "/domains/" + url.PathEscape(domainID) + "/records"
}

func toDomain(d domainJSON) provider.Domain {
	return provider.Domain{
		ID:           d.ID.String(),
		Name:         d.Name,
		TTL:          d.TTL,
		EmailAddress: d.EmailAddress,
		Comment:      d.Comment,
		AccountID:    d.AccountID.String(),
	}
}

func toRecord(r recordJSON) provider.Record {
	return provider.Record{
		ID:       r.ID,
		Name:     r.Name,
		Type:     r.Type,
		Data:     r.Data,
		TTL:      r.TTL,
		Priority: r.Priority,
		Comment:  r.Comment,
	}
}

func fromInput(r provider.RecordInput) recordJSON {
	return recordJSON{
		Name:     r.Name,
		Type:     r.Type,
		Data:     r.Data,
		TTL:      r.TTL,
		Priority: r.Priority,
		Comment:  r.Comment,
	}
}

var (
	_ provider.Provider       = (*CloudDNSProvider)(nil)
	_ provider.BaseURLRebaser = (*CloudDNSProvider)(nil)
)
