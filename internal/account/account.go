package account

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/evanofslack/clouddns-console/internal/metrics"
	"github.com/evanofslack/clouddns-console/internal/provider"
)

// DefaultToken clears a session override when submitted as an account id.
const DefaultToken = "default"

const (
	warnSplice  = "account switching is limited: the provider client cannot switch accounts, the account was set through its base url"
	warnAmbient = "account switching is unavailable: operating on the provider client's default account"
)

// Resolve picks the account for one logical operation. A session override wins
// unless it is empty or the "default" sentinel.
func Resolve(session, fallback string) string {
	if IsReset(session) {
		return fallback
	}
	return session
}

// IsReset reports whether id clears the session override.
func IsReset(id string) bool {
	id = strings.TrimSpace(id)
	return id == "" || id == DefaultToken
}

// Scope is the account an operation runs under, captured once and never
// changed. Provider is a handle bound to AccountID for this operation only.
type Scope struct {
	AccountID string
	Degraded  bool
	Warning   string
	Provider  provider.Provider
}

type Manager struct {
	base    provider.Provider
	metrics *metrics.Metrics
}

func NewManager(base provider.Provider, metrics *metrics.Metrics) *Manager {
	return &Manager{base: base, metrics: metrics}
}

// Default is the account the provider client authenticates into.
func (m *Manager) Default() string {
	return m.base.DefaultAccount()
}

func (m *Manager) Resolve(session string) string {
	return Resolve(session, m.Default())
}

// Pin returns a scope bound to accountID. It fails only when the provider
// rejects the account; a client without account switching yields a degraded
// scope instead.
func (m *Manager) Pin(ctx context.Context, accountID string) (Scope, error) {
	def := m.base.DefaultAccount()
	if IsReset(accountID) || accountID == def {
		return Scope{AccountID: def, Provider: m.base}, nil
	}

	if scoper, ok := m.base.(provider.AccountScoper); ok {
		p, err := scoper.ForAccount(ctx, accountID)
		if err != nil {
			return Scope{}, fmt.Errorf("pin account %s: %w", accountID, err)
		}
		m.metrics.IncAccountPin("native")
		slog.Debug("Pinned account", "account", accountID)
		return Scope{AccountID: accountID, Provider: p}, nil
	}

	if rebaser, ok := m.base.(provider.BaseURLRebaser); ok {
		p, err := splice(rebaser, accountID)
		if err == nil {
			m.metrics.IncAccountPin("splice")
			slog.Warn("Provider client cannot switch accounts, spliced account into base url", "account", accountID)
			return Scope{AccountID: accountID, Degraded: true, Warning: warnSplice, Provider: p}, nil
		}
		slog.Warn("Fail splice account into base url", "account", accountID, "error", err)
	}

	m.metrics.IncAccountPin("ambient")
	slog.Warn("Provider client cannot switch accounts, using default account", "requested", accountID, "account", def)
	return Scope{AccountID: def, Degraded: true, Warning: warnAmbient, Provider: m.base}, nil
}

// List returns the accounts visible to the client. Without an account
// listing capability only the default account is known.
func (m *Manager) List(ctx context.Context) ([]provider.Account, bool, error) {
	if lister, ok := m.base.(provider.AccountLister); ok {
		accounts, err := lister.ListAccounts(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("list accounts: %w", err)
		}
		return accounts, false, nil
	}
	return []provider.Account{{ID: m.base.DefaultAccount()}}, true, nil
}

func splice(rebaser provider.BaseURLRebaser, accountID string) (provider.Provider, error) {
	base, err := SpliceAccount(rebaser.BaseURL(), accountID)
	if err != nil {
		return nil, err
	}
	return rebaser.WithBaseURL(base)
}

var versionSegment = regexp.MustCompile(`^[vV]\d+(\.\d+)*$`)

// splitAccountPath splits an account-scoped API path into everything up to
// the account and the account itself. The account must follow at least one
// other segment and must not look like an API version.
func splitAccountPath(p string) (prefix, accountID string, ok bool) {
	p = strings.TrimSuffix(p, "/")
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return "", "", false
	}
	accountID = p[i+1:]
	if accountID == "" || versionSegment.MatchString(accountID) {
		return "", "", false
	}
	return p[:i+1], accountID, true
}

// AccountFromBaseURL returns the account segment of an account-scoped API
// base such as https://dns.api.rackspacecloud.com/v1.0/123456, or "" when
// the base has none.
func AccountFromBaseURL(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	_, accountID, _ := splitAccountPath(u.Path)
	return accountID
}

// SpliceAccount replaces the account segment of an account-scoped API base.
func SpliceAccount(base, accountID string) (string, error) {
	if accountID == "" || strings.ContainsAny(accountID, "/?#") {
		return "", fmt.Errorf("invalid account id %q", accountID)
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	prefix, _, ok := splitAccountPath(u.Path)
	if !ok {
		return "", fmt.Errorf("base url %q has no account segment", base)
	}
	u.Path = prefix + accountID
	u.RawPath = ""
	return u.String(), nil
}

type ctxKey struct{}

// WithAccount stores the account resolved for the current request.
func WithAccount(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, accountID)
}

func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok
}
