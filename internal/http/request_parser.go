// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating request data:
// JSON bodies, month selections and distribution queries.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/stats"
)

const maxBodyBytes = 1 << 20

// defaultDistributionDays is the range covered when no dates are given.
const defaultDistributionDays = 30

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month time.Month
}

// ParseMonthParams extracts year and month from query parameters, using the
// month of now as defaults. A month outside 1..12 is rejected.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: now.Month()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return MonthParams{}, fmt.Errorf("%w: year %q", errBadRequest, v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, fmt.Errorf("%w: month %q", errBadRequest, v)
		}
		if m < 1 || m > 12 {
			return MonthParams{}, fmt.Errorf("%w: %d", core.ErrInvalidMonth, m)
		}
		params.Month = time.Month(m)
	}
	return params, nil
}

// ParseTransactionFilter reads the month selection of a transaction listing.
// Without year and month every transaction is listed.
func ParseTransactionFilter(query url.Values, now time.Time) (MonthParams, bool, error) {
	unvalidated := parseBool(query.Get("unvalidated"))
	if query.Get("year") == "" && query.Get("month") == "" {
		return MonthParams{}, unvalidated, nil
	}
	params, err := ParseMonthParams(query, now)
	return params, unvalidated, err
}

// ParseDistributionQuery reads account, from, to and direction. Defaults cover
// the last thirty days of debits over every account.
func ParseDistributionQuery(query url.Values, now time.Time) (stats.DistributionQuery, error) {
	today := core.DateOf(now)
	q := stats.DistributionQuery{
		AccountID: stats.AllAccounts,
		From:      core.DateOf(today.AddDate(0, 0, -defaultDistributionDays)),
		To:        today,
		Direction: core.Debit,
	}

	if v := strings.TrimSpace(query.Get("account")); v != "" {
		q.AccountID = v
	}
	if v := strings.TrimSpace(query.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return q, fmt.Errorf("%w: from: %w", errBadRequest, err)
		}
		q.From = d
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return q, fmt.Errorf("%w: to: %w", errBadRequest, err)
		}
		q.To = d
	}
	if v := strings.TrimSpace(query.Get("direction")); v != "" {
		q.Direction = core.Direction(strings.ToUpper(v))
	}
	return q, nil
}

// DecodeJSON reads a single JSON value from the request body into dst.
// Unknown fields and trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		// Enum and date types report their own validation errors.
		if isValidation(err) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON value", errBadRequest)
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// sanitizeInput removes control characters except tab, newline and carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
