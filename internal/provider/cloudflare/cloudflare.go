package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudflare/cloudflare-go"
	"github.com/evanofslack/clouddns-console/internal/config"
	"github.com/evanofslack/clouddns-console/internal/metrics"
	"github.com/evanofslack/clouddns-console/internal/provider"
)

type CloudflareProvider struct {
	client  *cloudflare.API
	metrics *metrics.Metrics
	account string
}

func New(cfg config.DNS, metrics *metrics.Metrics) (*CloudflareProvider, error) {
	token := cfg.Token
	if token == "" {
		return nil, fmt.Errorf("cloudflare API token required")
	}

	client, err := cloudflare.NewWithAPIToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloudflare client: %w", err)
	}

	p := &CloudflareProvider{
		client:  client,
		metrics: metrics,
		account: cfg.Account,
	}

	// Fall back to the first account the token can see
	if p.account == "" {
		accounts, err := p.ListAccounts(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to discover default account: %w", err)
		}
		if len(accounts) == 0 {
			return nil, fmt.Errorf("cloudflare token has no accessible accounts")
		}
		p.account = accounts[0].ID
	}
	return p, nil
}

func (p *CloudflareProvider) DefaultAccount() string {
	return p.account
}

// ForAccount returns a copy of the provider bound to accountID after checking
// the token can access it.
func (p *CloudflareProvider) ForAccount(ctx context.Context, accountID string) (provider.Provider, error) {
	start := time.Now()
	acct, _, err := p.client.Account(ctx, accountID)
	p.observe("read", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, wrapUnknownAccount(err))
	}
	scoped := *p
	scoped.account = acct.ID
	return &scoped, nil
}

func (p *CloudflareProvider) ListAccounts(ctx context.Context) ([]provider.Account, error) {
	start := time.Now()
	accounts, _, err := p.client.Accounts(ctx, cloudflare.AccountsListParams{})
	p.observe("read", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	out := make([]provider.Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, provider.Account{ID: a.ID, Name: a.Name})
	}
	return out, nil
}

func (p *CloudflareProvider) observe(operation string, start time.Time, err error) {
	p.metrics.IncDNSRequest(operation, err == nil)
	p.metrics.ObserveDNSRequest(operation, time.Since(start))
}

func (p *CloudflareProvider) ListDomains(ctx context.Context) ([]provider.Domain, error) {
	slog.Info("Listing zones", "account", p.account)
	start := time.Now()

	resp, err := p.client.ListZonesContext(ctx, cloudflare.WithZoneFilters("", p.account, ""))
	p.observe("read", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}

	domains := make([]provider.Domain, 0, len(resp.Result))
	for _, z := range resp.Result {
		domains = append(domains, toDomain(z))
	}
	slog.Debug("Listed zones", "account", p.account, "count", len(domains), "duration", time.Since(start))
	return domains, nil
}

func (p *CloudflareProvider) GetDomain(ctx context.Context, name string) (provider.Domain, error) {
	start := time.Now()

	resp, err := p.client.ListZonesContext(ctx, cloudflare.WithZoneFilters(name, p.account, ""))
	p.observe("read", start, err)
	if err != nil {
		return provider.Domain{}, fmt.Errorf("failed to get zone %s: %w", name, err)
	}
	for _, z := range resp.Result {
		if strings.EqualFold(z.Name, name) {
			return toDomain(z), nil
		}
	}
	return provider.Domain{}, fmt.Errorf("zone %s: %w", name, provider.ErrNotFound)
}

// CreateDomain creates a full zone under the bound account. Cloudflare zones
// have no default TTL or SOA contact, so ttl and email are only echoed back.
func (p *CloudflareProvider) CreateDomain(ctx context.Context, name string, ttl int, email string) (provider.Domain, error) {
	slog.Info("Creating zone", "account", p.account, "domain", name)
	slog.Debug("Zone ttl and contact email are not supported by cloudflare", "ttl", ttl, "email", email)
	start := time.Now()

	zone, err := p.client.CreateZone(ctx, name, false, cloudflare.Account{ID: p.account}, "full")
	p.observe("create", start, err)
	if err != nil {
		return provider.Domain{}, fmt.Errorf("failed to create zone %s: %w", name, err)
	}

	d := toDomain(zone)
	d.TTL = ttl
	d.EmailAddress = email
	slog.Debug("Created zone", "domain", name, "id", zone.ID, "duration", time.Since(start))
	return d, nil
}

func (p *CloudflareProvider) DeleteDomain(ctx context.Context, domainID string) error {
	slog.Info("Deleting zone", "account", p.account, "zone_id", domainID)
	start := time.Now()

	_, err := p.client.DeleteZone(ctx, domainID)
	p.observe("delete", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete zone %s: %w", domainID, wrapNotFound(err))
	}
	slog.Debug("Deleted zone", "zone_id", domainID, "duration", time.Since(start))
	return nil
}

func (p *CloudflareProvider) ListRecords(ctx context.Context, domainID string) ([]provider.Record, error) {
	slog.Info("Getting DNS records", "account", p.account, "zone_id", domainID)
	start := time.Now()

	// Get all records for the zone with pagination
	var allRecords []cloudflare.DNSRecord
	page := 1
	for {
		rc := cloudflare.ZoneIdentifier(domainID)
		params := cloudflare.ListDNSRecordsParams{
			ResultInfo: cloudflare.ResultInfo{
				Page:    page,
				PerPage: 100,
			},
		}

		records, resultInfo, err := p.client.ListDNSRecords(ctx, rc, params)
		if err != nil {
			p.observe("read", start, err)
			return nil, fmt.Errorf("failed to list DNS records: %w", wrapNotFound(err))
		}

		allRecords = append(allRecords, records...)
		if resultInfo == nil || page >= resultInfo.TotalPages {
			break
		}
		page++
	}

	result := make([]provider.Record, 0, len(allRecords))
	for _, r := range allRecords {
		result = append(result, toRecord(r))
	}

	p.observe("read", start, nil)
	slog.Debug("Retrieved DNS records", "zone_id", domainID, "count", len(result), "duration", time.Since(start))
	return result, nil
}

func (p *CloudflareProvider) GetRecord(ctx context.Context, domainID, recordID string) (provider.Record, error) {
	start := time.Now()
	r, err := p.client.GetDNSRecord(ctx, cloudflare.ZoneIdentifier(domainID), recordID)
	p.observe("read", start, err)
	if err != nil {
		return provider.Record{}, fmt.Errorf("failed to get DNS record %s: %w", recordID, wrapNotFound(err))
	}
	return toRecord(r), nil
}

func (p *CloudflareProvider) CreateRecord(ctx context.Context, domainID string, record provider.RecordInput) (provider.Record, error) {
	slog.Info("Creating DNS record", "zone_id", domainID, "name", record.Name, "type", record.Type, "data", record.Data)
	start := time.Now()

	params := cloudflare.CreateDNSRecordParams{
		Type:     record.Type,
		Name:     record.Name,
		Content:  record.Data,
		TTL:      record.TTL,
		Priority: toPriority(record.Priority),
		Comment:  record.Comment,
	}

	created, err := p.client.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(domainID), params)
	p.observe("create", start, err)
	if err != nil {
		return provider.Record{}, fmt.Errorf("failed to create DNS record: %w", err)
	}

	slog.Debug("Created DNS record", "zone_id", domainID, "name", record.Name, "type", record.Type, "duration", time.Since(start))
	return toRecord(created), nil
}

// CreateRecords submits records one at a time and stops at the first
// failure, returning what was created so far.
func (p *CloudflareProvider) CreateRecords(ctx context.Context, domainID string, records []provider.RecordInput) ([]provider.Record, error) {
	created := make([]provider.Record, 0, len(records))
	for _, r := range records {
		rec, err := p.CreateRecord(ctx, domainID, r)
		if err != nil {
			return created, err
		}
		created = append(created, rec)
	}
	return created, nil
}

func (p *CloudflareProvider) UpdateRecord(ctx context.Context, domainID, recordID string, update provider.RecordUpdate) error {
	slog.Info("Updating DNS record", "zone_id", domainID, "record_id", recordID)

	// Tags are always sent on update; carry the current ones so they survive
	current, err := p.client.GetDNSRecord(ctx, cloudflare.ZoneIdentifier(domainID), recordID)
	if err != nil {
		return fmt.Errorf("failed to get DNS record %s: %w", recordID, wrapNotFound(err))
	}
	tags := current.Tags
	if tags == nil {
		tags = []string{}
	}

	start := time.Now()
	params := cloudflare.UpdateDNSRecordParams{
		ID:      recordID,
		Comment: update.Comment,
		Tags:    tags,
	}
	if update.Data != nil {
		params.Content = *update.Data
	}
	if update.TTL != nil {
		params.TTL = *update.TTL
	}

	_, err = p.client.UpdateDNSRecord(ctx, cloudflare.ZoneIdentifier(domainID), params)
	p.observe("update", start, err)
	if err != nil {
		return fmt.Errorf("failed to update DNS record: %w", wrapNotFound(err))
	}

	slog.Debug("Updated DNS record", "zone_id", domainID, "record_id", recordID, "duration", time.Since(start))
	return nil
}

func (p *CloudflareProvider) DeleteRecord(ctx context.Context, domainID, recordID string) error {
	slog.Info("Deleting DNS record", "zone_id", domainID, "record_id", recordID)
	start := time.Now()

	err := p.client.DeleteDNSRecord(ctx, cloudflare.ZoneIdentifier(domainID), recordID)
	p.observe("delete", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete DNS record: %w", wrapNotFound(err))
	}

	slog.Debug("Deleted DNS record", "zone_id", domainID, "record_id", recordID, "duration", time.Since(start))
	return nil
}

func wrapNotFound(err error) error {
	var nf *cloudflare.NotFoundError
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %v", provider.ErrNotFound, err)
	}
	return err
}

// wrapUnknownAccount marks errors meaning the token cannot reach the account.
// Transport and server errors pass through unchanged.
func wrapUnknownAccount(err error) error {
	var nf *cloudflare.NotFoundError
	var authz *cloudflare.AuthorizationError
	var authn *cloudflare.AuthenticationError
	if errors.As(err, &nf) || errors.As(err, &authz) || errors.As(err, &authn) {
		return fmt.Errorf("%w: %v", provider.ErrUnknownAccount, err)
	}
	return err
}

func toDomain(z cloudflare.Zone) provider.Domain {
	return provider.Domain{
		ID:        z.ID,
		Name:      z.Name,
		AccountID: z.Account.ID,
	}
}

func toRecord(r cloudflare.DNSRecord) provider.Record {
	rec := provider.Record{
		ID:      r.ID,
		Name:    r.Name,
		Type:    r.Type,
		Data:    r.Content,
		TTL:     r.TTL,
		Comment: r.Comment,
	}
	if r.Priority != nil && provider.HasPriority(r.Type) {
		prio := int(*r.Priority)
		rec.Priority = &prio
	}
	return rec
}

func toPriority(p *int) *uint16 {
	if p == nil {
		return nil
	}
	v := uint16(*p)
	return &v
}

var (
	_ provider.Provider      = (*CloudflareProvider)(nil)
	_ provider.AccountScoper = (*CloudflareProvider)(nil)
	_ provider.AccountLister = (*CloudflareProvider)(nil)
)
