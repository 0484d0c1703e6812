package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/divvyhq/divvy/internal/ledger"
	"github.com/divvyhq/divvy/internal/middleware"
	"github.com/divvyhq/divvy/internal/models"
	"github.com/divvyhq/divvy/internal/money"
	"github.com/divvyhq/divvy/internal/split"
	"github.com/divvyhq/divvy/internal/storage"
)

// ExpenseService handles expense creation and retraction. Creating an
// expense runs the split engine and applies the resulting shares to the
// ledger; deleting one reverses them. Validation always happens before any
// store or ledger mutation.
type ExpenseService struct {
	store  storage.Store
	ledger *ledger.Ledger
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store storage.Store, l *ledger.Ledger) *ExpenseService {
	return &ExpenseService{store: store, ledger: l}
}

// RegisterRoutes mounts the expense endpoints on the authenticated mux.
func (s *ExpenseService) RegisterRoutes(authed *http.ServeMux) {
	authed.HandleFunc("POST /api/v1/expenses", s.handleCreate)
	authed.HandleFunc("GET /api/v1/expenses/{id}", s.handleGet)
	authed.HandleFunc("DELETE /api/v1/expenses/{id}", s.handleDelete)
	authed.HandleFunc("GET /api/v1/groups/{id}/expenses", s.handleListByGroup)
}

type createExpenseRequest struct {
	GroupID        string   `json:"group_id"`
	Description    string   `json:"description"`
	Amount         string   `json:"amount"`
	Currency       string   `json:"currency"`
	PayerID        string   `json:"payer_id"`
	SplitKind      string   `json:"split_kind"`
	ParticipantIDs []string `json:"participant_ids"`
	Amounts        []string `json:"amounts"`     // exact splits only
	Percentages    []string `json:"percentages"` // percentage splits only
	Notes          string   `json:"notes"`
}

type shareResponse struct {
	UserID     string `json:"user_id"`
	Amount     string `json:"amount"`
	Percentage string `json:"percentage,omitempty"`
}

type expenseResponse struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id,omitempty"`
	Description string          `json:"description"`
	Amount      string          `json:"amount"`
	Currency    string          `json:"currency"`
	PayerID     string          `json:"payer_id"`
	SplitKind   string          `json:"split_kind"`
	Shares      []shareResponse `json:"shares"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   int64           `json:"created_at"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	shares := make([]shareResponse, len(e.Shares))
	for i, sh := range e.Shares {
		shares[i] = shareResponse{UserID: sh.UserID, Amount: money.Format(sh.Amount)}
		if e.SplitKind == split.Percentage {
			shares[i].Percentage = sh.Percentage.String()
		}
	}
	return expenseResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      money.Format(e.Amount),
		Currency:    e.Currency,
		PayerID:     e.PaidBy,
		SplitKind:   string(e.SplitKind),
		Shares:      shares,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
	}
}

func (s *ExpenseService) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	kind, err := split.ParseKind(req.SplitKind)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	total, err := money.Parse(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	payerID := req.PayerID
	if payerID == "" {
		payerID = userID
	}
	if payerID != userID && !contains(req.ParticipantIDs, userID) {
		writeError(w, http.StatusForbidden, errors.New("you must be the payer or a participant"))
		return
	}

	inputs, err := parseInputs(kind, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// Compute and validate shares before anything is persisted; an
	// invalid split never reaches the store or the ledger.
	shares, err := split.Compute(kind, total, req.ParticipantIDs, inputs)
	if err != nil {
		slog.Warn("Split rejected", "kind", kind, "error", err)
		writeDomainError(w, err)
		return
	}

	if req.GroupID != "" {
		group, err := s.store.GetGroup(r.Context(), req.GroupID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !group.HasMember(userID) {
			writeError(w, http.StatusForbidden, errors.New("you must be a member of this group"))
			return
		}
	}

	expense := &models.Expense{
		GroupID:     req.GroupID,
		Description: req.Description,
		Amount:      total,
		Currency:    req.Currency,
		PaidBy:      payerID,
		SplitKind:   kind,
		Shares:      shares,
		Notes:       req.Notes,
	}
	if err := s.store.CreateExpense(r.Context(), expense); err != nil {
		slog.Error("CreateExpense failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.ledger.ApplyShares(payerID, shares)

	recordActivity(r, s.store, models.ActivityExpenseAdded, expense.GroupID,
		fmt.Sprintf("added expense %q (%s)", expense.Description, money.Format(total)))

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"payer_id", payerID,
		"amount", money.Format(total),
		"split_kind", kind,
		"participants", len(shares),
	)
	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (s *ExpenseService) handleGet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	expense, err := s.store.GetExpense(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !expense.InvolvesUser(userID) {
		writeError(w, http.StatusForbidden, errors.New("you must be involved in this expense"))
		return
	}

	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *ExpenseService) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	expense, err := s.store.GetExpense(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !expense.InvolvesUser(userID) {
		writeError(w, http.StatusForbidden, errors.New("you must be involved in this expense"))
		return
	}

	if err := s.store.DeleteExpense(r.Context(), expense.ID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		writeDomainError(w, err)
		return
	}

	// Reversing the stored shares restores every pairwise balance to its
	// pre-expense value.
	s.ledger.ReverseShares(expense.PaidBy, expense.Shares)

	recordActivity(r, s.store, models.ActivityExpenseDeleted, expense.GroupID,
		fmt.Sprintf("deleted expense %q", expense.Description))

	slog.Info("Expense deleted", "expense_id", expense.ID, "payer_id", expense.PaidBy)
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *ExpenseService) handleListByGroup(w http.ResponseWriter, r *http.Request) {
	group, ok := memberGroup(w, r, s.store)
	if !ok {
		return
	}

	expenses, err := s.store.ListExpensesByGroup(r.Context(), group.ID)
	if err != nil {
		slog.Error("ListExpensesByGroup failed", "group_id", group.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseResponse(e)
	}
	writeJSON(w, http.StatusOK, out)
}

// parseInputs converts the kind-specific request arrays into decimals.
func parseInputs(kind split.Kind, req createExpenseRequest) ([]decimal.Decimal, error) {
	var raw []string
	switch kind {
	case split.Exact:
		raw = req.Amounts
	case split.Percentage:
		raw = req.Percentages
	default:
		return nil, nil
	}

	inputs := make([]decimal.Decimal, len(raw))
	for i, s := range raw {
		d, err := money.Parse(s)
		if err != nil {
			return nil, err
		}
		inputs[i] = d
	}
	return inputs, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
