package zone

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/libdns/libdns"
	"github.com/miekg/dns"

	"github.com/evanofslack/clouddns-console/internal/account"
	"github.com/evanofslack/clouddns-console/internal/metrics"
	"github.com/evanofslack/clouddns-console/internal/provider"
	"github.com/evanofslack/clouddns-console/internal/transform"
)

// ConfirmDelete must be typed to delete a domain.
const ConfirmDelete = "REALLYDELETE"

// Service runs domain and record operations. Every method takes the account
// scope pinned at the start of the logical operation and issues all of its
// provider calls through that scope.
type Service struct {
	transformer *transform.Transformer
	metrics     *metrics.Metrics
	domainTTL   int
}

func NewService(transformer *transform.Transformer, metrics *metrics.Metrics, domainTTL int) *Service {
	return &Service{
		transformer: transformer,
		metrics:     metrics,
		domainTTL:   domainTTL,
	}
}

func (s *Service) ListDomains(ctx context.Context, sc account.Scope) ([]provider.Domain, error) {
	domains, err := sc.Provider.ListDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("list domains for account %s: %w", sc.AccountID, err)
	}
	return domains, nil
}

// Domain returns a domain with its full record set.
func (s *Service) Domain(ctx context.Context, sc account.Scope, name string) (DomainView, error) {
	if name == "" {
		return DomainView{}, invalid("domain", "name is required")
	}
	d, err := sc.Provider.GetDomain(ctx, name)
	if err != nil {
		return DomainView{}, fmt.Errorf("get domain %s: %w", name, err)
	}
	records, err := sc.Provider.ListRecords(ctx, d.ID)
	if err != nil {
		return DomainView{}, fmt.Errorf("list records of %s: %w", name, err)
	}
	return DomainView{Domain: d, Records: records}, nil
}

// CreateDomain creates a domain with the default TTL and an admin@ contact.
func (s *Service) CreateDomain(ctx context.Context, sc account.Scope, name string) (provider.Domain, error) {
	name = normalizeDomain(name)
	if err := validateDomainName("domain", name); err != nil {
		return provider.Domain{}, err
	}
	d, err := sc.Provider.CreateDomain(ctx, name, s.domainTTL, adminEmail(name))
	if err != nil {
		return provider.Domain{}, fmt.Errorf("create domain %s: %w", name, err)
	}
	slog.Info("Domain added", "account", sc.AccountID, "domain", name)
	return d, nil
}

// DeleteDomain deletes the named domain when confirmation is ConfirmDelete.
// Any other confirmation cancels without touching the provider and reports
// false.
func (s *Service) DeleteDomain(ctx context.Context, sc account.Scope, name, confirmation string) (bool, error) {
	if confirmation != ConfirmDelete {
		slog.Info("Domain deletion canceled", "account", sc.AccountID, "domain", name)
		return false, nil
	}
	if name == "" {
		return false, invalid("domain", "name is required")
	}
	d, err := sc.Provider.GetDomain(ctx, name)
	if err != nil {
		return false, fmt.Errorf("get domain %s: %w", name, err)
	}
	if err := sc.Provider.DeleteDomain(ctx, d.ID); err != nil {
		return false, fmt.Errorf("delete domain %s: %w", name, err)
	}
	slog.Info("Domain deleted", "account", sc.AccountID, "domain", name)
	return true, nil
}

func (s *Service) CreateRecord(ctx context.Context, sc account.Scope, domainName string, form RecordForm) (provider.Record, error) {
	if domainName == "" {
		return provider.Record{}, invalid("domain", "name is required")
	}
	in, err := parseRecordForm(domainName, form)
	if err != nil {
		return provider.Record{}, err
	}

	d, err := sc.Provider.GetDomain(ctx, domainName)
	if err != nil {
		return provider.Record{}, fmt.Errorf("get domain %s: %w", domainName, err)
	}
	rec, err := sc.Provider.CreateRecord(ctx, d.ID, in)
	if err != nil {
		return provider.Record{}, fmt.Errorf("create record %s: %w", in.Name, err)
	}
	slog.Info("Record added", "account", sc.AccountID, "domain", domainName, "name", in.Name, "type", in.Type)
	return rec, nil
}

// UpdateRecord changes data, TTL and comment only; the API does not allow
// renaming or retyping a record.
func (s *Service) UpdateRecord(ctx context.Context, sc account.Scope, domainName, recordID string, form UpdateForm) error {
	if recordID == "" {
		return invalid("record", "id is required")
	}
	var update provider.RecordUpdate
	if data := strings.TrimSpace(form.Data); data != "" {
		update.Data = &data
	}
	if form.TTL != "" {
		ttl, err := ParseTTL(form.TTL)
		if err != nil {
			return err
		}
		update.TTL = &ttl
	}
	if form.Comment != "" {
		comment := form.Comment
		update.Comment = &comment
	}
	if update.Data == nil && update.TTL == nil && update.Comment == nil {
		return invalid("record", "nothing to update")
	}

	d, err := sc.Provider.GetDomain(ctx, domainName)
	if err != nil {
		return fmt.Errorf("get domain %s: %w", domainName, err)
	}
	if _, err := sc.Provider.GetRecord(ctx, d.ID, recordID); err != nil {
		return fmt.Errorf("get record %s: %w", recordID, err)
	}
	if err := sc.Provider.UpdateRecord(ctx, d.ID, recordID, update); err != nil {
		return fmt.Errorf("update record %s: %w", recordID, err)
	}
	slog.Info("Record updated", "account", sc.AccountID, "domain", domainName, "record_id", recordID)
	return nil
}

func (s *Service) DeleteRecord(ctx context.Context, sc account.Scope, domainName, recordID string) error {
	if recordID == "" {
		return invalid("record", "id is required")
	}
	d, err := sc.Provider.GetDomain(ctx, domainName)
	if err != nil {
		return fmt.Errorf("get domain %s: %w", domainName, err)
	}
	if err := sc.Provider.DeleteRecord(ctx, d.ID, recordID); err != nil {
		return fmt.Errorf("delete record %s: %w", recordID, err)
	}
	slog.Info("Record deleted", "account", sc.AccountID, "domain", domainName, "record_id", recordID)
	return nil
}

// ParseTTL parses a user supplied TTL in seconds.
func ParseTTL(s string) (int, error) {
	ttl, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, invalid("ttl", "%q is not a number", s)
	}
	if ttl <= 0 {
		return 0, invalid("ttl", "must be positive, got %d", ttl)
	}
	return ttl, nil
}

// QualifyName makes name a member of domain. Names already equal to or under
// domain are returned as is; anything else is treated as a label and has the
// domain appended.
func QualifyName(name, domain string) string {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")
	domain = strings.TrimSuffix(domain, ".")
	if strings.EqualFold(name, domain) || dns.IsSubDomain(dns.Fqdn(domain), dns.Fqdn(name)) {
		return name
	}
	return strings.TrimSuffix(libdns.AbsoluteName(name, domain), ".")
}

func parseRecordForm(domainName string, form RecordForm) (provider.RecordInput, error) {
	var in provider.RecordInput

	if strings.TrimSpace(form.Name) == "" {
		return in, invalid("name", "is required")
	}
	if strings.TrimSpace(form.Data) == "" {
		return in, invalid("data", "is required")
	}
	recordType := strings.ToUpper(strings.TrimSpace(form.Type))
	if _, ok := dns.StringToType[recordType]; !ok || recordType == "" {
		return in, invalid("type", "unknown record type %q", form.Type)
	}
	ttl, err := ParseTTL(form.TTL)
	if err != nil {
		return in, err
	}

	in = provider.RecordInput{
		Name:    QualifyName(form.Name, domainName),
		Type:    recordType,
		Data:    strings.TrimSpace(form.Data),
		TTL:     ttl,
		Comment: form.Comment,
	}

	if provider.HasPriority(recordType) {
		prio, err := strconv.Atoi(strings.TrimSpace(form.Priority))
		if err != nil {
			return provider.RecordInput{}, invalid("priority", "%s records need a numeric priority, got %q", recordType, form.Priority)
		}
		if prio < 0 || prio > 65535 {
			return provider.RecordInput{}, invalid("priority", "%d out of range", prio)
		}
		in.Priority = &prio
	}
	return in, nil
}

func validateDomainName(field, name string) error {
	if name == "" {
		return invalid(field, "name is required")
	}
	if _, ok := dns.IsDomainName(name); !ok {
		return invalid(field, "%q is not a valid domain name", name)
	}
	return nil
}

func normalizeDomain(name string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), "."))
}

func adminEmail(domain string) string {
	return "admin@" + domain
}
