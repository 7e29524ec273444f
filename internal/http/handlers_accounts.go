package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/store"
)

func (s *Server) handleListBanks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, core.Banks())
}

func (s *Server) handleListAccounts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newAccountViews(s.store.Accounts()))
}

func (s *Server) handleGroupedAccounts(w http.ResponseWriter, _ *http.Request) {
	g := s.store.Grouped()
	writeJSON(w, http.StatusOK, GroupedView{
		Checking: newAccountViews(g.Checking),
		Savings:  newAccountViews(g.Savings),
	})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Account(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(a))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var in store.AccountInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Label = sanitizeInput(in.Label)

	a, err := s.store.AddAccount(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/accounts/"+a.ID).
		Body(newAccountView(a)).
		Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var p store.AccountPatch
	if err := DecodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if p.Label != nil {
		label := sanitizeInput(*p.Label)
		p.Label = &label
	}

	a, err := s.store.EditAccount(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(a))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAccount(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
