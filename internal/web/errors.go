package web

import (
	"errors"
	"net/http"

	"github.com/cleared-dev/budgetbook/internal/budgets"
	"github.com/cleared-dev/budgetbook/internal/decisions"
	"github.com/cleared-dev/budgetbook/internal/importer"
	"github.com/cleared-dev/budgetbook/internal/logger"
	"github.com/cleared-dev/budgetbook/internal/report"
	"github.com/cleared-dev/budgetbook/internal/resolver"
)

// Error codes returned in ErrorBody.Code.
const (
	codeMalformedInput      = "malformed_input"
	codeBudgetConfiguration = "budget_configuration"
	codeStateLost           = "workflow_state_lost"
	codeInconsistentData    = "inconsistent_data"
	codeNotFound            = "not_found"
	codeInternal            = "internal"
)

// classify maps an error to a status and code. Malformed input and lost
// workflow state are client errors; missing budgets are a configuration
// problem the client can't fix by resubmitting.
func classify(err error) (int, string) {
	var validation decisions.ValidationErrors
	switch {
	case errors.Is(err, resolver.ErrStateLost):
		return http.StatusBadRequest, codeStateLost
	case errors.Is(err, resolver.ErrMalformedSubmission),
		errors.Is(err, resolver.ErrMalformedBatch),
		errors.Is(err, importer.ErrMalformedLine),
		errors.As(err, &validation):
		return http.StatusBadRequest, codeMalformedInput
	case errors.Is(err, budgets.ErrNoBudgetPeriod),
		errors.Is(err, budgets.ErrNotBudgeted):
		return http.StatusUnprocessableEntity, codeBudgetConfiguration
	case errors.Is(err, report.ErrInconsistentState),
		errors.Is(err, decisions.ErrInconsistentPartition):
		return http.StatusInternalServerError, codeInconsistentData
	}
	return http.StatusInternalServerError, codeInternal
}

// writeErr logs err and writes the classified response. Internal errors are
// not echoed to the client.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	log := logger.FromContext(r.Context())
	msg := err.Error()
	if code == codeInternal {
		log.Error().Err(err).Msg("request failed")
		msg = "internal server error"
	} else {
		log.Warn().Err(err).Str("code", code).Msg("request rejected")
	}
	WriteError(w, status, code, msg)
}
