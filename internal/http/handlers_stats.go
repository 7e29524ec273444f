package http

import (
	"net/http"

	"budget/internal/stats"
)

func (s *Server) handleMonthlyBalance(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	accountID := r.PathValue("id")
	series, err := s.stats.MonthlyBalance(r.Context(), accountID, month.Year, month.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	validated, projected := stats.ClosingBalance(series)
	writeJSON(w, http.StatusOK, BalanceView{
		AccountID: accountID,
		Year:      month.Year,
		Month:     int(month.Month),
		Days:      nonNil(series),
		Closing:   ClosingView{Validated: validated, Projected: projected},
	})
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	q, err := ParseDistributionQuery(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	groups, err := s.stats.Distribution(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DistributionView{
		Account:   q.AccountID,
		From:      q.From,
		To:        q.To,
		Direction: q.Direction,
		Total:     stats.GrandTotal(groups),
		Groups:    nonNil(groups),
	})
}
