package http

import (
	"net/http"

	"budget/internal/store"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	month, unvalidated, err := ParseTransactionFilter(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	txs, err := s.store.Transactions(r.PathValue("id"), store.TransactionFilter{
		Year:            month.Year,
		Month:           month.Month,
		UnvalidatedOnly: unvalidated,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in store.TransactionInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Label = sanitizeInput(in.Label)

	accountID := r.PathValue("id")
	t, err := s.store.AddTransaction(r.Context(), accountID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/accounts/"+accountID+"/transactions/"+t.ID).
		Body(t).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var in store.TransactionInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Label = sanitizeInput(in.Label)

	t, err := s.store.EditTransaction(r.Context(), r.PathValue("id"), r.PathValue("txID"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTransaction(r.Context(), r.PathValue("id"), r.PathValue("txID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.ToggleValidation(r.Context(), r.PathValue("id"), r.PathValue("txID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
