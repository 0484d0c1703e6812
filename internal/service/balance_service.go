package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/divvyhq/divvy/internal/ledger"
	"github.com/divvyhq/divvy/internal/middleware"
	"github.com/divvyhq/divvy/internal/models"
	"github.com/divvyhq/divvy/internal/money"
	"github.com/divvyhq/divvy/internal/storage"
)

// BalanceService exposes the ledger: recording settlements, pairwise and
// group-wide balance reads, and the simplified settlement plan. The plan
// endpoint is read-only; paying a proposed transaction is an explicit
// settlement POST.
type BalanceService struct {
	store  storage.Store
	ledger *ledger.Ledger
}

// NewBalanceService creates a new BalanceService.
func NewBalanceService(store storage.Store, l *ledger.Ledger) *BalanceService {
	return &BalanceService{store: store, ledger: l}
}

// RegisterRoutes mounts the balance and settlement endpoints on the
// authenticated mux.
func (s *BalanceService) RegisterRoutes(authed *http.ServeMux) {
	authed.HandleFunc("POST /api/v1/settlements", s.handleCreateSettlement)
	authed.HandleFunc("GET /api/v1/settlements/{id}", s.handleGetSettlement)
	authed.HandleFunc("GET /api/v1/balances", s.handlePairwiseBalance)
	authed.HandleFunc("GET /api/v1/groups/{id}/settlements", s.handleListSettlements)
	authed.HandleFunc("GET /api/v1/groups/{id}/balances", s.handleGroupBalances)
	authed.HandleFunc("GET /api/v1/groups/{id}/simplify", s.handleSimplify)
}

type createSettlementRequest struct {
	GroupID    string `json:"group_id"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
	Notes      string `json:"notes"`
}

type settlementResponse struct {
	ID         string `json:"id"`
	GroupID    string `json:"group_id,omitempty"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
	Notes      string `json:"notes,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

func toSettlementResponse(st *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:         st.ID,
		GroupID:    st.GroupID,
		FromUserID: st.FromUserID,
		ToUserID:   st.ToUserID,
		Amount:     money.Format(st.Amount),
		Notes:      st.Note,
		CreatedAt:  st.CreatedAt,
	}
}

func (s *BalanceService) handleCreateSettlement(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createSettlementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.ToUserID == "" {
		writeError(w, http.StatusBadRequest, errors.New("to_user_id is required"))
		return
	}
	fromID := req.FromUserID
	if fromID == "" {
		fromID = userID
	}
	if fromID != userID && req.ToUserID != userID {
		writeError(w, http.StatusForbidden, errors.New("you must be a party to this settlement"))
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
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

	if err := ledger.CheckSettlement(fromID, req.ToUserID, amount); err != nil {
		writeDomainError(w, err)
		return
	}

	// Persist before applying: a store failure leaves the ledger untouched,
	// and the already validated Settle below cannot fail.
	settlement := &models.Settlement{
		GroupID:    req.GroupID,
		FromUserID: fromID,
		ToUserID:   req.ToUserID,
		Amount:     amount,
		CreatedBy:  userID,
		Note:       req.Notes,
	}
	if err := s.store.CreateSettlement(r.Context(), settlement); err != nil {
		slog.Error("CreateSettlement failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.ledger.Settle(fromID, req.ToUserID, amount); err != nil {
		// Unreachable after CheckSettlement; the startup rebuild replays
		// the stored record if it ever is.
		slog.Error("Settle after persist failed", "settlement_id", settlement.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	recordActivity(r, s.store, models.ActivitySettlementAdded, settlement.GroupID,
		fmt.Sprintf("settled %s to %s", money.Format(amount), req.ToUserID))

	slog.Info("Settlement recorded",
		"settlement_id", settlement.ID,
		"from", fromID,
		"to", req.ToUserID,
		"amount", money.Format(amount),
	)
	writeJSON(w, http.StatusCreated, toSettlementResponse(settlement))
}

func (s *BalanceService) handleGetSettlement(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	settlement, err := s.store.GetSettlement(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if settlement.FromUserID != userID && settlement.ToUserID != userID && settlement.CreatedBy != userID {
		writeError(w, http.StatusForbidden, errors.New("you must be a party to this settlement"))
		return
	}

	writeJSON(w, http.StatusOK, toSettlementResponse(settlement))
}

func (s *BalanceService) handlePairwiseBalance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	userA := r.URL.Query().Get("user_a")
	if userA == "" {
		userA = userID
	}
	userB := r.URL.Query().Get("user_b")
	if userB == "" {
		// Without a counterpart, return every balance the caller holds.
		if userA != userID {
			writeError(w, http.StatusForbidden, errors.New("you can only list your own balances"))
			return
		}
		balances := s.ledger.BalancesFor(userID)
		out := make(map[string]string, len(balances))
		for id, bal := range balances {
			out[id] = money.Format(bal)
		}
		net := s.ledger.NetBalances([]string{userID})[userID]
		writeJSON(w, http.StatusOK, map[string]any{
			"user_id":  userID,
			"net":      money.Format(net),
			"balances": out,
		})
		return
	}
	if userA != userID && userB != userID {
		writeError(w, http.StatusForbidden, errors.New("you must be one of the queried users"))
		return
	}

	bal := s.ledger.BalanceBetween(userA, userB)
	writeJSON(w, http.StatusOK, map[string]string{
		"user_a":  userA,
		"user_b":  userB,
		"balance": money.Format(bal),
	})
}

func (s *BalanceService) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	group, ok := memberGroup(w, r, s.store)
	if !ok {
		return
	}

	settlements, err := s.store.ListSettlementsByGroup(r.Context(), group.ID)
	if err != nil {
		slog.Error("ListSettlementsByGroup failed", "group_id", group.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]settlementResponse, len(settlements))
	for i, st := range settlements {
		out[i] = toSettlementResponse(st)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *BalanceService) handleGroupBalances(w http.ResponseWriter, r *http.Request) {
	group, ok := memberGroup(w, r, s.store)
	if !ok {
		return
	}

	net := s.ledger.NetBalancesAmong(group.Members)
	out := make(map[string]string, len(net))
	for id, bal := range net {
		out[id] = money.Format(bal)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"group_id": group.ID,
		"balances": out,
	})
}

type transactionResponse struct {
	FromUserID string `json:"from_user_id"`
	FromName   string `json:"from_name,omitempty"`
	ToUserID   string `json:"to_user_id"`
	ToName     string `json:"to_name,omitempty"`
	Amount     string `json:"amount"`
}

func (s *BalanceService) handleSimplify(w http.ResponseWriter, r *http.Request) {
	group, ok := memberGroup(w, r, s.store)
	if !ok {
		return
	}

	txns, err := s.ledger.Simplify(group.Members)
	if err != nil {
		slog.Error("Simplify failed", "group_id", group.ID, "error", err)
		writeDomainError(w, err)
		return
	}

	// Names are decoration; a lookup failure degrades to IDs only.
	users, err := s.store.GetUsersByIDs(r.Context(), group.Members)
	if err != nil {
		slog.Warn("User lookup for settlement plan failed", "group_id", group.ID, "error", err)
	}
	displayName := func(id string) string {
		if u, ok := users[id]; ok {
			return u.DisplayName
		}
		return ""
	}

	out := make([]transactionResponse, len(txns))
	for i, t := range txns {
		out[i] = transactionResponse{
			FromUserID: t.FromUserID,
			FromName:   displayName(t.FromUserID),
			ToUserID:   t.ToUserID,
			ToName:     displayName(t.ToUserID),
			Amount:     money.Format(t.Amount),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"group_id":     group.ID,
		"transactions": out,
	})
}
