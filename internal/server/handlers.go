package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/evanofslack/clouddns-console/internal/account"
	"github.com/evanofslack/clouddns-console/internal/provider"
	"github.com/evanofslack/clouddns-console/internal/zone"
)

type accountsView struct {
	Current  string             `json:"current"`
	Default  string             `json:"default"`
	Accounts []provider.Account `json:"accounts"`
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	current, _ := account.FromContext(r.Context())
	accounts, degraded, err := s.accounts.List(r.Context())
	if err != nil {
		writeError(w, account.Scope{AccountID: current}, err)
		return
	}
	sc := account.Scope{AccountID: current}
	if degraded {
		sc.Warning = "account listing is unavailable for this provider"
	}
	writeOK(w, sc, fmt.Sprintf("%d accounts", len(accounts)), accountsView{
		Current:  current,
		Default:  s.accounts.Default(),
		Accounts: accounts,
	})
}

// handleSetAccount stores the session's account override. An empty value or
// "default" clears it. Other values are pinned first so unknown accounts are
// rejected before they are stored.
func (s *Server) handleSetAccount(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.FormValue("account"))
	sid := sessionID(r.Context())

	if account.IsReset(id) {
		if err := s.sessions.Reset(r.Context(), sid); err != nil {
			writeError(w, account.Scope{}, err)
			return
		}
		def := s.accounts.Default()
		writeOK(w, account.Scope{AccountID: def}, "Account reset to default "+def, nil)
		return
	}

	sc, err := s.accounts.Pin(r.Context(), id)
	if err != nil {
		writeError(w, sc, err)
		return
	}
	if err := s.sessions.SetAccount(r.Context(), sid, id); err != nil {
		writeError(w, sc, err)
		return
	}
	writeOK(w, sc, "Account switched to "+sc.AccountID, nil)
}

func (s *Server) handleDomains(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scope(r)
	if err != nil {
		writeError(w, sc, err)
		return
	}
	domains, err := s.zones.ListDomains(r.Context(), sc)
	if err != nil {
		writeError(w, sc, err)
		return
	}
	writeOK(w, sc, fmt.Sprintf("%d domains", len(domains)), domains)
}

func (s *Server) handleCreateDomain(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scope(r)
	if err != nil {
		writeError(w, sc, err)
		return
	}
	d, err := s.zones.CreateDomain(r.Context(), sc, r.FormValue("domain"))
	if err != nil {
		writeError(w, sc, err)
		return
	}
	writeOK(w, sc, "Domain "+d.Name+" added", d)
}

func (s *Server) handleDeleteDomain(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scope(r)
	if err != nil {
		writeError(w, sc, err)
		return
	}
	name := r.FormValue("domain")
	deleted, err := s.zones.DeleteDomain(r.Context(), sc, name, r.FormValue("confirmation"))
	if err != nil {
		writeError(w, sc, err)
		return
	}
	if !deleted {
		writeOK(w, sc, "Deletion of "+name+" canceled", nil)
		return
	}
	writeOK(w, sc, "Domain "+name+" deleted", nil)
}

func (s *Server) handleDomain(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scope(r)
	if err != nil {
		writeError(w, sc, err)
		return
	}
	view, err := s.zones.Domain(r.Context(), sc, r.PathValue("domain"))
	if err != nil {
		writeError(w, sc, err)
		return
	}
	writeOK(w, sc, fmt.Sprintf("%d records", len(view.Records)), view)
}

func (s *Server) handleDuplicate(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scope(r)
	if err != nil {
		writeError(w, sc, err)
		return
	}
	source := r.PathValue("domain")
	target, err := s.zones.Duplicate(r.Context(), sc, source, r.FormValue("name"))
	if err != nil {
		writeError(w, sc, err)
		return
	}
	writeOK(w, sc, "Domain "+source+" duplicated to "+target.Name, target)
}

func (s *Server) handleAdjustTTL(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scope(r)
	if err != nil {
		writeError(w, sc, err)
		return
	}
	ttl, err := zone.ParseTTL(r.FormValue("ttl"))
	if err != nil {
		writeError(w, sc, err)
		return
	}
	report, err := s.zones.AdjustTTL(r.Context(), sc, r.PathValue("domain"), ttl)
	if err != nil {
		writeError(w, sc, err)
		return
	}
	msg := fmt.Sprintf("TTL set to %d on %d of %d records", ttl, report.Updated, report.Attempted)
	if report.Failed() > 0 {
		resp := response{Message: msg, Warning: joinWarnings(sc.Warning, fmt.Sprintf("%d records failed to update", report.Failed())), Data: report}
		writeJSON(w, http.StatusOK, resp)
		return
	}
	writeOK(w, sc, msg, report)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scope(r)
	if err != nil {
		writeError(w, sc, err)
		return
	}
	form := zone.RecordForm{
		Name:     r.FormValue("name"),
		Type:     r.FormValue("type"),
		Data:     r.FormValue("data"),
		TTL:      r.FormValue("ttl"),
		Priority: r.FormValue("priority"),
		Comment:  r.FormValue("comment"),
	}
	rec, err := s.zones.CreateRecord(r.Context(), sc, r.PathValue("domain"), form)
	if err != nil {
		writeError(w, sc, err)
		return
	}
	writeOK(w, sc, "Record "+rec.Name+" added", rec)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scope(r)
	if err != nil {
		writeError(w, sc, err)
		return
	}
	form := zone.UpdateForm{
		Data:    r.FormValue("data"),
		TTL:     r.FormValue("ttl"),
		Comment: r.FormValue("comment"),
	}
	id := r.PathValue("id")
	if err := s.zones.UpdateRecord(r.Context(), sc, r.PathValue("domain"), id, form); err != nil {
		writeError(w, sc, err)
		return
	}
	writeOK(w, sc, "Record "+id+" updated", nil)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scope(r)
	if err != nil {
		writeError(w, sc, err)
		return
	}
	id := r.PathValue("id")
	if err := s.zones.DeleteRecord(r.Context(), sc, r.PathValue("domain"), id); err != nil {
		writeError(w, sc, err)
		return
	}
	writeOK(w, sc, "Record "+id+" deleted", nil)
}

func joinWarnings(warnings ...string) string {
	var out []string
	for _, w := range warnings {
		if w != "" {
			out = append(out, w)
		}
	}
	return strings.Join(out, "; ")
}
