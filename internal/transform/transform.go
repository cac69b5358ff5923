// Package transform turns records of one domain into copy-ready payloads for
// another.
package transform

import (
	"strings"

	"github.com/evanofslack/clouddns-console/internal/provider"
)

// DefaultNameserverSuffix is where the provider points the NS records it
// provisions on domain creation.
const DefaultNameserverSuffix = "stabletransit.com"

type Transformer struct {
	nsSuffix string
}

func New(nsSuffix string) *Transformer {
	if nsSuffix == "" {
		nsSuffix = DefaultNameserverSuffix
	}
	return &Transformer{nsSuffix: strings.ToLower(strings.TrimSuffix(nsSuffix, "."))}
}

// ShouldCopy is false only for NS records pointing at the provider's own
// nameservers, which a new domain already gets on creation.
func (t *Transformer) ShouldCopy(r provider.Record) bool {
	if !strings.EqualFold(r.Type, "NS") {
		return true
	}
	data := strings.ToLower(strings.TrimSuffix(r.Data, "."))
	return !strings.HasSuffix(data, t.nsSuffix)
}

// Rename replaces every occurrence of oldDomain in the record name with
// newDomain. This is plain substring replacement: an infix match inside an
// unrelated label is replaced too. Data is never rewritten.
func (t *Transformer) Rename(r provider.Record, oldDomain, newDomain string) provider.RecordInput {
	in := provider.RecordInput{
		Name:    strings.ReplaceAll(r.Name, oldDomain, newDomain),
		Type:    r.Type,
		Data:    r.Data,
		TTL:     r.TTL,
		Comment: r.Comment,
	}
	if provider.HasPriority(r.Type) && r.Priority != nil {
		prio := *r.Priority
		in.Priority = &prio
	}
	return in
}
