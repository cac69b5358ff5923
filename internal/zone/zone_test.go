package zone

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/evanofslack/clouddns-console/internal/provider"
)

func intPtr(i int) *int { return &i }

func TestDuplicate(t *testing.T) {
	ctx := context.Background()

	p := newMockProvider()
	p.addDomain("old.example.com",
		provider.Record{ID: "1", Name: "old.example.com", Type: "A", Data: "1.2.3.4", TTL: 300},
		provider.Record{ID: "2", Name: "old.example.com", Type: "NS", Data: "ns.stabletransit.com", TTL: 300},
		provider.Record{ID: "3", Name: "old.example.com", Type: "MX", Data: "mail.old.example.com", TTL: 300, Priority: intPtr(10)},
	)
	s := newTestService()

	target, err := s.Duplicate(ctx, scopeFor(p), "old.example.com", "new.example.com")
	if err != nil {
		t.Fatalf("Duplicate failed: %v", err)
	}
	if target.Name != "new.example.com" || target.TTL != DuplicateTTL || target.EmailAddress != "admin@new.example.com" {
		t.Errorf("unexpected target %+v", target)
	}

	if len(p.batches) != 1 {
		t.Fatalf("expected a single bulk submission, got %d", len(p.batches))
	}
	expected := []provider.RecordInput{
		{Name: "new.example.com", Type: "A", Data: "1.2.3.4", TTL: 300},
		{Name: "new.example.com", Type: "MX", Data: "mail.old.example.com", TTL: 300, Priority: intPtr(10)},
	}
	if !reflect.DeepEqual(p.batches[0], expected) {
		t.Errorf("batch = %+v, want %+v", p.batches[0], expected)
	}
	if p.called("CreateRecord") != len(expected) || p.called("CreateRecords") != 1 {
		t.Errorf("unexpected calls %v", p.calls)
	}
}

func TestDuplicateValidation(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
	}{
		{"same name", "example.com", "example.com"},
		{"same name different case", "example.com", "EXAMPLE.com."},
		{"empty source", "", "new.example.com"},
		{"empty target", "old.example.com", " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newMockProvider()
			_, err := newTestService().Duplicate(context.Background(), scopeFor(p), tt.old, tt.new)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(p.calls) != 0 {
				t.Errorf("provider called before validation: %v", p.calls)
			}
		})
	}
}

func TestDuplicateSourceMissing(t *testing.T) {
	p := newMockProvider()
	_, err := newTestService().Duplicate(context.Background(), scopeFor(p), "missing.com", "new.com")
	if !errors.Is(err, provider.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if p.called("CreateDomain") != 0 {
		t.Error("target must not be created when the source is missing")
	}
}

func TestDuplicatePartial(t *testing.T) {
	p := newMockProvider()
	p.addDomain("old.com", provider.Record{ID: "1", Name: "www.old.com", Type: "A", Data: "1.2.3.4", TTL: 300})
	p.createRecordsErr = errors.New("upstream 500")

	target, err := newTestService().Duplicate(context.Background(), scopeFor(p), "old.com", "new.com")
	var partial *PartialError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialError, got %v", err)
	}
	if partial.Target.Name != "new.com" || target.Name != "new.com" {
		t.Errorf("partial error should name the created target: %+v", partial.Target)
	}
	if _, ok := p.domains["new.com"]; !ok {
		t.Error("target domain should be left in place")
	}
}

func TestDuplicateCreateDomainFails(t *testing.T) {
	p := newMockProvider()
	p.addDomain("old.com")
	p.createDomainErr = errors.New("quota exceeded")

	_, err := newTestService().Duplicate(context.Background(), scopeFor(p), "old.com", "new.com")
	if err == nil {
		t.Fatal("expected error")
	}
	var partial *PartialError
	if errors.As(err, &partial) {
		t.Error("nothing was created, error should not be partial")
	}
}

func TestDuplicateEmptyBatch(t *testing.T) {
	p := newMockProvider()
	p.addDomain("old.com", provider.Record{ID: "1", Name: "old.com", Type: "NS", Data: "dns1.stabletransit.com.", TTL: 300})

	if _, err := newTestService().Duplicate(context.Background(), scopeFor(p), "old.com", "new.com"); err != nil {
		t.Fatalf("Duplicate failed: %v", err)
	}
	if p.called("CreateRecords") != 0 {
		t.Error("empty batch should not be submitted")
	}
}

func TestAdjustTTL(t *testing.T) {
	p := newMockProvider()
	var records []provider.Record
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		records = append(records, provider.Record{ID: id, Name: id + ".example.com", Type: "A", Data: "1.2.3.4", TTL: 300})
	}
	p.addDomain("example.com", records...)
	p.updateErr["3"] = errors.New("upstream rejected update")

	report, err := newTestService().AdjustTTL(context.Background(), scopeFor(p), "example.com", 600)
	if err != nil {
		t.Fatalf("AdjustTTL should not fail on item errors: %v", err)
	}
	if p.called("UpdateRecord") != 5 {
		t.Errorf("attempted %d updates, want 5", p.called("UpdateRecord"))
	}
	if report.Attempted != 5 || report.Updated != 4 || report.Failed() != 1 {
		t.Errorf("unexpected report %+v", report)
	}
	if report.Failures[0].Record.ID != "3" || report.Failures[0].Op != "update" {
		t.Errorf("unexpected failure %+v", report.Failures[0])
	}
	for id, u := range p.updates {
		if u.Data != nil || u.Comment != nil || u.TTL == nil || *u.TTL != 600 {
			t.Errorf("update of %s should set only ttl: %+v", id, u)
		}
	}
}

func TestAdjustTTLErrors(t *testing.T) {
	tests := []struct {
		name    string
		domain  string
		ttl     int
		setup   func(*MockProvider)
		wantErr func(error) bool
	}{
		{
			name:   "zero ttl",
			domain: "example.com",
			ttl:    0,
			wantErr: func(err error) bool {
				var verr *ValidationError
				return errors.As(err, &verr)
			},
		},
		{
			name:    "missing domain",
			domain:  "missing.com",
			ttl:     300,
			wantErr: func(err error) bool { return errors.Is(err, provider.ErrNotFound) },
		},
		{
			name:   "list fails",
			domain: "example.com",
			ttl:    300,
			setup:  func(p *MockProvider) { p.listRecordsErr = errors.New("timeout") },
			wantErr: func(err error) bool {
				return err != nil && !errors.Is(err, provider.ErrNotFound)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newMockProvider()
			p.addDomain("example.com", provider.Record{ID: "1", Name: "example.com", Type: "A", Data: "1.2.3.4"})
			if tt.setup != nil {
				tt.setup(p)
			}
			_, err := newTestService().AdjustTTL(context.Background(), scopeFor(p), tt.domain, tt.ttl)
			if !tt.wantErr(err) {
				t.Errorf("unexpected error %v", err)
			}
			if p.called("UpdateRecord") != 0 {
				t.Error("no update should be attempted")
			}
		})
	}
}

func TestDeleteDomainConfirmation(t *testing.T) {
	tests := []struct {
		confirmation string
		deleted      bool
	}{
		{"REALLYDELETE", true},
		{"", false},
		{"really-delete", false},
		{"reallydelete", false},
		{" REALLYDELETE", false},
	}
	for _, tt := range tests {
		t.Run(tt.confirmation, func(t *testing.T) {
			p := newMockProvider()
			p.addDomain("example.com")

			deleted, err := newTestService().DeleteDomain(context.Background(), scopeFor(p), "example.com", tt.confirmation)
			if err != nil {
				t.Fatalf("DeleteDomain failed: %v", err)
			}
			if deleted != tt.deleted {
				t.Errorf("deleted = %v, want %v", deleted, tt.deleted)
			}
			want := 0
			if tt.deleted {
				want = 1
			}
			if got := p.called("DeleteDomain"); got != want {
				t.Errorf("DeleteDomain called %d times, want %d", got, want)
			}
		})
	}
}

func TestQualifyName(t *testing.T) {
	tests := []struct {
		name, domain, want string
	}{
		{"www", "example.com", "www.example.com"},
		{"www.example.com", "example.com", "www.example.com"},
		{"www.example.com.", "example.com", "www.example.com"},
		{"example.com", "example.com", "example.com"},
		{"WWW.Example.com", "example.com", "WWW.Example.com"},
		{"a.b", "example.com", "a.b.example.com"},
		{"notexample.com", "example.com", "notexample.com.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QualifyName(tt.name, tt.domain); got != tt.want {
				t.Errorf("QualifyName(%q, %q) = %q, want %q", tt.name, tt.domain, got, tt.want)
			}
		})
	}
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"300", 300, false},
		{" 3600 ", 3600, false},
		{"", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"-5", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTTL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTTL(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTTL(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestCreateRecord(t *testing.T) {
	tests := []struct {
		name     string
		form     RecordForm
		expected provider.Record
		invalid  string
	}{
		{
			name:     "qualifies label",
			form:     RecordForm{Name: "www", Type: "a", Data: "1.2.3.4", TTL: "300"},
			expected: provider.Record{ID: "r1", Name: "www.example.com", Type: "A", Data: "1.2.3.4", TTL: 300},
		},
		{
			name:     "keeps qualified name",
			form:     RecordForm{Name: "www.example.com", Type: "CNAME", Data: "example.com", TTL: "300", Comment: "web"},
			expected: provider.Record{ID: "r1", Name: "www.example.com", Type: "CNAME", Data: "example.com", TTL: 300, Comment: "web"},
		},
		{
			name:     "mx priority",
			form:     RecordForm{Name: "example.com", Type: "MX", Data: "mail.example.com", TTL: "300", Priority: "10"},
			expected: provider.Record{ID: "r1", Name: "example.com", Type: "MX", Data: "mail.example.com", TTL: 300, Priority: intPtr(10)},
		},
		{
			name:     "priority ignored for txt",
			form:     RecordForm{Name: "example.com", Type: "TXT", Data: "v=spf1 -all", TTL: "300", Priority: "10"},
			expected: provider.Record{ID: "r1", Name: "example.com", Type: "TXT", Data: "v=spf1 -all", TTL: 300},
		},
		{name: "mx missing priority", form: RecordForm{Name: "example.com", Type: "MX", Data: "mail", TTL: "300"}, invalid: "priority"},
		{name: "bad ttl", form: RecordForm{Name: "www", Type: "A", Data: "1.2.3.4", TTL: "soon"}, invalid: "ttl"},
		{name: "unknown type", form: RecordForm{Name: "www", Type: "BOGUS", Data: "x", TTL: "300"}, invalid: "type"},
		{name: "missing name", form: RecordForm{Type: "A", Data: "1.2.3.4", TTL: "300"}, invalid: "name"},
		{name: "missing data", form: RecordForm{Name: "www", Type: "A", TTL: "300"}, invalid: "data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newMockProvider()
			p.addDomain("example.com")

			got, err := newTestService().CreateRecord(context.Background(), scopeFor(p), "example.com", tt.form)
			if tt.invalid != "" {
				var verr *ValidationError
				if !errors.As(err, &verr) || verr.Field != tt.invalid {
					t.Fatalf("expected ValidationError on %s, got %v", tt.invalid, err)
				}
				if p.called("CreateRecord") != 0 {
					t.Error("invalid record reached the provider")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateRecord failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("CreateRecord() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestUpdateRecord(t *testing.T) {
	p := newMockProvider()
	p.addDomain("example.com", provider.Record{ID: "r1", Name: "example.com", Type: "A", Data: "1.2.3.4", TTL: 300})
	s := newTestService()
	ctx := context.Background()

	if err := s.UpdateRecord(ctx, scopeFor(p), "example.com", "r1", UpdateForm{TTL: "900"}); err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}
	u := p.updates["r1"]
	if u.TTL == nil || *u.TTL != 900 || u.Data != nil || u.Comment != nil {
		t.Errorf("unexpected update %+v", u)
	}

	err := s.UpdateRecord(ctx, scopeFor(p), "example.com", "r1", UpdateForm{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("empty update should be invalid, got %v", err)
	}

	err = s.UpdateRecord(ctx, scopeFor(p), "example.com", "nope", UpdateForm{Data: "5.6.7.8"})
	if !errors.Is(err, provider.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown record, got %v", err)
	}
}

func TestCreateDomain(t *testing.T) {
	p := newMockProvider()
	s := newTestService()

	d, err := s.CreateDomain(context.Background(), scopeFor(p), "Fresh.Example.com.")
	if err != nil {
		t.Fatalf("CreateDomain failed: %v", err)
	}
	if d.Name != "fresh.example.com" || d.TTL != DuplicateTTL || d.EmailAddress != "admin@fresh.example.com" {
		t.Errorf("unexpected domain %+v", d)
	}

	_, err = s.CreateDomain(context.Background(), scopeFor(p), "bad domain..com")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestDomainView(t *testing.T) {
	p := newMockProvider()
	p.addDomain("example.com", provider.Record{ID: "r1", Name: "example.com", Type: "A", Data: "1.2.3.4", TTL: 300})

	view, err := newTestService().Domain(context.Background(), scopeFor(p), "example.com")
	if err != nil {
		t.Fatalf("Domain failed: %v", err)
	}
	if view.Domain.Name != "example.com" || len(view.Records) != 1 {
		t.Errorf("unexpected view %+v", view)
	}
}
