package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/budgetbook/internal/model"
	"github.com/cleared-dev/budgetbook/internal/resolver"
)

// PromptResponse asks the client for a mapping for Merchant.
type PromptResponse struct {
	Statement  string          `json:"statement"`
	Merchant   string          `json:"merchant"`
	Remaining  []string        `json:"remaining"`
	Categories []CategoryEntry `json:"categories"`
	State      string          `json:"state"`
}

// CategoryEntry lists a category with its subcategories.
type CategoryEntry struct {
	Name          string   `json:"name"`
	SubCategories []string `json:"subcategories"`
}

// uploadStatement handles POST /statements.
func (s *Server) uploadStatement(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, codeMalformedInput, "invalid multipart form")
		return
	}

	meta, err := s.statementMetadata(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, codeMalformedInput, err.Error())
		return
	}

	bankName := r.FormValue("bank")
	bank, ok := s.deps.Config.Bank(bankName)
	if !ok {
		WriteError(w, http.StatusBadRequest, codeMalformedInput, fmt.Sprintf("unknown bank %q", bankName))
		return
	}
	normalizer := s.deps.Normalizers.Get(bank.Format)
	if normalizer == nil {
		WriteError(w, http.StatusBadRequest, codeMalformedInput, fmt.Sprintf("unsupported format %q", bank.Format))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, codeMalformedInput, "statement file is required")
		return
	}
	defer file.Close()

	lines, err := normalizer.Normalize(file)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	out, err := s.deps.Workflow.Start(r.Context(), meta, lines)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.redirect(w, r, out)
}

func (s *Server) statementMetadata(r *http.Request) (model.StatementMetadata, error) {
	year, err := strconv.Atoi(r.FormValue("year"))
	if err != nil {
		return model.StatementMetadata{}, fmt.Errorf("invalid year %q", r.FormValue("year"))
	}
	month, err := strconv.Atoi(r.FormValue("month"))
	if err != nil {
		return model.StatementMetadata{}, fmt.Errorf("invalid month %q", r.FormValue("month"))
	}
	user := r.FormValue("user")
	if !s.deps.Config.HasUser(user) {
		return model.StatementMetadata{}, fmt.Errorf("unknown user %q", user)
	}
	return model.StatementMetadata{
		Year:      year,
		Month:     month,
		User:      user,
		Statement: strings.TrimSpace(r.FormValue("statement")),
	}, nil
}

// mappingPrompt handles GET /mappings/new?state=.
func (s *Server) mappingPrompt(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	prompt, err := s.deps.Workflow.Resume(state)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	remaining := prompt.Remaining
	if remaining == nil {
		remaining = []string{}
	}
	WriteJSON(w, http.StatusOK, PromptResponse{
		Statement:  prompt.Batch.Meta.String(),
		Merchant:   prompt.Merchant,
		Remaining:  remaining,
		Categories: s.categoryEntries(),
		State:      prompt.Token,
	})
}

// submitMapping handles POST /mappings. A rejected submission echoes the
// unchanged state back so the client can retry the same merchant.
func (s *Server) submitMapping(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, http.StatusBadRequest, codeMalformedInput, "invalid form")
		return
	}
	state := r.PostForm.Get("state")
	sub := resolver.Submission{
		Fragment:    r.PostForm.Get("fragment"),
		Category:    r.PostForm.Get("category"),
		SubCategory: r.PostForm.Get("subcategory"),
	}

	out, err := s.deps.Workflow.Submit(r.Context(), state, sub)
	var invalid resolver.ValidationErrors
	if errors.As(err, &invalid) {
		body := ErrorBody{Error: err.Error(), Code: codeMalformedInput, State: state}
		for _, e := range invalid {
			body.Fields = append(body.Fields, FieldError{Field: e.Field, Message: e.Message})
		}
		WriteJSON(w, http.StatusBadRequest, body)
		return
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.redirect(w, r, out)
}

// redirect sends the client to the next step of the workflow.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, out resolver.Outcome) {
	var target string
	switch out.State {
	case resolver.StateAllResolved:
		target = fmt.Sprintf("/reports/%d/%d", out.Batch.Meta.Year, out.Batch.Meta.Month)
	case resolver.StateAwaitingUserMapping:
		target = "/mappings/new?state=" + url.QueryEscape(out.Prompt.Token)
	default:
		writeErr(w, r, fmt.Errorf("unexpected workflow state %q", out.State))
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// monthlyReport handles GET /reports/{year}/{month}.
func (s *Server) monthlyReport(w http.ResponseWriter, r *http.Request) {
	year, yerr := strconv.Atoi(r.PathValue("year"))
	month, merr := strconv.Atoi(r.PathValue("month"))
	if yerr != nil || merr != nil || month < 1 || month > 12 {
		WriteError(w, http.StatusBadRequest, codeMalformedInput, "invalid year or month")
		return
	}

	payload, err := s.deps.Reports.Monthly(r.Context(), year, month)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, payload)
}

// annualReport handles GET /reports/annual?date=YYYY-MM-DD. The date
// defaults to today.
func (s *Server) annualReport(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := time.Parse(model.DateFormat, raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, codeMalformedInput, fmt.Sprintf("invalid date %q", raw))
			return
		}
		date = d
	}

	payload, err := s.deps.Reports.Annual(r.Context(), date)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, payload)
}

func (s *Server) categoryEntries() []CategoryEntry {
	cats := s.deps.Categories.All()
	entries := make([]CategoryEntry, 0, len(cats))
	for _, c := range cats {
		e := CategoryEntry{Name: c.Name, SubCategories: make([]string, 0, len(c.SubCategories))}
		for _, sub := range c.SubCategories {
			e.SubCategories = append(e.SubCategories, sub.Name)
		}
		entries = append(entries, e)
	}
	return entries
}
