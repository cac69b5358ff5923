package zone

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/evanofslack/clouddns-console/internal/account"
	"github.com/evanofslack/clouddns-console/internal/provider"
)

// AdjustTTL sets the TTL of every record in the domain. Records are updated
// one at a time; a failed update is recorded in the report and the loop moves
// on. Only the lookups before the loop can fail the whole call.
func (s *Service) AdjustTTL(ctx context.Context, sc account.Scope, domainName string, ttl int) (Report, error) {
	report := Report{Domain: domainName}
	if domainName == "" {
		return report, invalid("domain", "name is required")
	}
	if ttl <= 0 {
		return report, invalid("ttl", "must be positive, got %d", ttl)
	}

	d, err := sc.Provider.GetDomain(ctx, domainName)
	if err != nil {
		return report, fmt.Errorf("get domain %s: %w", domainName, err)
	}
	records, err := sc.Provider.ListRecords(ctx, d.ID)
	if err != nil {
		return report, fmt.Errorf("list records of %s: %w", domainName, err)
	}

	slog.Info("Adjusting record TTLs", "account", sc.AccountID, "domain", domainName, "ttl", ttl, "count", len(records))
	start := time.Now()

	for _, r := range records {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Attempted++
		update := provider.RecordUpdate{TTL: &ttl}
		if err := sc.Provider.UpdateRecord(ctx, d.ID, r.ID, update); err != nil {
			slog.Warn("Failed to update record ttl", "domain", domainName, "record_id", r.ID, "name", r.Name, "type", r.Type, "error", err)
			s.metrics.IncRecordMutation("update", false)
			report.Failures = append(report.Failures, OperationResult{
				Record: r,
				Op:     "update",
				Error:  err.Error(),
			})
			continue
		}
		s.metrics.IncRecordMutation("update", true)
		report.Updated++
	}

	slog.Info("Adjusted record TTLs", "domain", domainName, "updated", report.Updated, "failed", report.Failed(), "duration", time.Since(start))
	return report, nil
}
