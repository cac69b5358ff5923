package zone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/evanofslack/clouddns-console/internal/account"
	"github.com/evanofslack/clouddns-console/internal/provider"
)

// DuplicateTTL is the TTL of a domain created by Duplicate. The source
// domain's TTL is not inherited.
const DuplicateTTL = 3600

// Duplicate copies every record of oldName onto a newly created domain
// newName, skipping nameserver records the provider provisions itself.
//
// The copy is not transactional. Once the target domain exists any failure is
// returned as a *PartialError and the target is left in place.
func (s *Service) Duplicate(ctx context.Context, sc account.Scope, oldName, newName string) (provider.Domain, error) {
	oldName = normalizeDomain(oldName)
	newName = normalizeDomain(newName)
	if err := validateDomainName("source", oldName); err != nil {
		return provider.Domain{}, err
	}
	if err := validateDomainName("target", newName); err != nil {
		return provider.Domain{}, err
	}
	if strings.EqualFold(oldName, newName) {
		return provider.Domain{}, invalid("target", "must differ from source %s", oldName)
	}

	slog.Info("Duplicating domain", "account", sc.AccountID, "source", oldName, "target", newName)
	start := time.Now()

	target, err := s.duplicate(ctx, sc, oldName, newName)
	s.metrics.IncDuplication(err == nil)
	if err != nil {
		var partial *PartialError
		if errors.As(err, &partial) {
			slog.Error("Duplication left a partial domain", "account", sc.AccountID, "target", newName, "stage", partial.Stage, "error", partial.Err)
		}
		return target, err
	}

	slog.Info("Duplicated domain", "account", sc.AccountID, "source", oldName, "target", newName, "duration", time.Since(start))
	return target, nil
}

func (s *Service) duplicate(ctx context.Context, sc account.Scope, oldName, newName string) (provider.Domain, error) {
	p := sc.Provider

	source, err := p.GetDomain(ctx, oldName)
	if err != nil {
		return provider.Domain{}, fmt.Errorf("get source domain %s: %w", oldName, err)
	}
	records, err := p.ListRecords(ctx, source.ID)
	if err != nil {
		return provider.Domain{}, fmt.Errorf("list records of %s: %w", oldName, err)
	}

	target, err := p.CreateDomain(ctx, newName, DuplicateTTL, adminEmail(newName))
	if err != nil {
		return provider.Domain{}, fmt.Errorf("create target domain %s: %w", newName, err)
	}

	batch := s.copyBatch(records, oldName, newName)
	slog.Debug("Prepared records for copy", "target", newName, "source_count", len(records), "copy_count", len(batch))
	if len(batch) == 0 {
		return target, nil
	}

	created, err := p.CreateRecords(ctx, target.ID, batch)
	if err != nil {
		return target, &PartialError{Target: target, Stage: "create records", Err: err}
	}
	for range created {
		s.metrics.IncRecordMutation("create", true)
	}
	return target, nil
}

// copyBatch filters and renames source records in their original order.
func (s *Service) copyBatch(records []provider.Record, oldName, newName string) []provider.RecordInput {
	batch := make([]provider.RecordInput, 0, len(records))
	for _, r := range records {
		if !s.transformer.ShouldCopy(r) {
			slog.Debug("Skipping provider nameserver record", "name", r.Name, "data", r.Data)
			continue
		}
		batch = append(batch, s.transformer.Rename(r, oldName, newName))
	}
	return batch
}
