package service

import (
	"net/http"
	"testing"
)

type expenseBody struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
	Shares []struct {
		UserID string `json:"user_id"`
		Amount string `json:"amount"`
	} `json:"shares"`
}

func TestExpenseLifecycle(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	carol := env.registerUser(t, "carol")
	groupID := env.createGroup(t, "Trip", []testUser{alice, bob, carol})

	var created expenseBody
	status := env.do(t, http.MethodPost, "/api/v1/expenses", alice.Token, map[string]any{
		"group_id":        groupID,
		"description":     "Dinner",
		"amount":          "100.00",
		"split_kind":      "equal",
		"participant_ids": []string{alice.ID, bob.ID, carol.ID},
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create expense = %d, want 201", status)
	}
	if created.ID == "" {
		t.Fatal("created expense has no ID")
	}
	if len(created.Shares) != 3 {
		t.Fatalf("got %d shares, want 3", len(created.Shares))
	}
	if created.Shares[0].Amount != "33.33" || created.Shares[2].Amount != "33.34" {
		t.Errorf("shares = %v, want 33.33/33.33/33.34", created.Shares)
	}

	t.Run("ledger reflects the expense", func(t *testing.T) {
		var bal struct {
			Balance string `json:"balance"`
		}
		status := env.do(t, http.MethodGet,
			"/api/v1/balances?user_a="+alice.ID+"&user_b="+bob.ID, alice.Token, nil, &bal)
		if status != http.StatusOK {
			t.Fatalf("pairwise balance = %d, want 200", status)
		}
		if bal.Balance != "33.33" {
			t.Errorf("balance = %s, want 33.33", bal.Balance)
		}
	})

	t.Run("participant can fetch the expense", func(t *testing.T) {
		var got expenseBody
		status := env.do(t, http.MethodGet, "/api/v1/expenses/"+created.ID, bob.Token, nil, &got)
		if status != http.StatusOK {
			t.Fatalf("get expense = %d, want 200", status)
		}
		if got.Amount != "100.00" {
			t.Errorf("amount = %s, want 100.00", got.Amount)
		}
	})

	t.Run("uninvolved user cannot fetch", func(t *testing.T) {
		dave := env.registerUser(t, "dave")
		status := env.do(t, http.MethodGet, "/api/v1/expenses/"+created.ID, dave.Token, nil, nil)
		if status != http.StatusForbidden {
			t.Errorf("outsider get expense = %d, want 403", status)
		}
	})

	t.Run("group expense listing", func(t *testing.T) {
		var list []expenseBody
		status := env.do(t, http.MethodGet, "/api/v1/groups/"+groupID+"/expenses", carol.Token, nil, &list)
		if status != http.StatusOK {
			t.Fatalf("list expenses = %d, want 200", status)
		}
		if len(list) != 1 || list[0].ID != created.ID {
			t.Errorf("list = %v", list)
		}
	})

	t.Run("delete reverses the balances", func(t *testing.T) {
		status := env.do(t, http.MethodDelete, "/api/v1/expenses/"+created.ID, alice.Token, nil, nil)
		if status != http.StatusOK {
			t.Fatalf("delete expense = %d, want 200", status)
		}

		var bal struct {
			Balance string `json:"balance"`
		}
		env.do(t, http.MethodGet,
			"/api/v1/balances?user_a="+alice.ID+"&user_b="+bob.ID, alice.Token, nil, &bal)
		if bal.Balance != "0.00" {
			t.Errorf("balance after delete = %s, want 0.00", bal.Balance)
		}

		status = env.do(t, http.MethodGet, "/api/v1/expenses/"+created.ID, alice.Token, nil, nil)
		if status != http.StatusNotFound {
			t.Errorf("get deleted expense = %d, want 404", status)
		}
	})
}

func TestExpenseValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")

	base := func() map[string]any {
		return map[string]any{
			"description":     "Lunch",
			"amount":          "50.00",
			"split_kind":      "exact",
			"participant_ids": []string{alice.ID, bob.ID},
			"amounts":         []string{"30.00", "20.00"},
		}
	}

	t.Run("valid exact split accepted", func(t *testing.T) {
		status := env.do(t, http.MethodPost, "/api/v1/expenses", alice.Token, base(), nil)
		if status != http.StatusCreated {
			t.Fatalf("create = %d, want 201", status)
		}
	})

	t.Run("mismatched exact amounts rejected", func(t *testing.T) {
		before := env.ledger.BalanceBetween(alice.ID, bob.ID)

		body := base()
		body["amounts"] = []string{"30.00", "10.00"}
		status := env.do(t, http.MethodPost, "/api/v1/expenses", alice.Token, body, nil)
		if status != http.StatusBadRequest {
			t.Fatalf("bad split = %d, want 400", status)
		}

		// A rejected split must leave the ledger untouched.
		if after := env.ledger.BalanceBetween(alice.ID, bob.ID); !after.Equal(before) {
			t.Errorf("ledger changed on rejected split: %s -> %s", before, after)
		}
	})

	t.Run("unknown split kind rejected", func(t *testing.T) {
		body := base()
		body["split_kind"] = "vibes"
		status := env.do(t, http.MethodPost, "/api/v1/expenses", alice.Token, body, nil)
		if status != http.StatusBadRequest {
			t.Errorf("unknown kind = %d, want 400", status)
		}
	})

	t.Run("non positive amount rejected", func(t *testing.T) {
		body := base()
		body["amount"] = "0.00"
		body["split_kind"] = "equal"
		delete(body, "amounts")
		status := env.do(t, http.MethodPost, "/api/v1/expenses", alice.Token, body, nil)
		if status != http.StatusBadRequest {
			t.Errorf("zero amount = %d, want 400", status)
		}
	})

	t.Run("percentages not summing to 100 rejected", func(t *testing.T) {
		body := base()
		body["split_kind"] = "percentage"
		delete(body, "amounts")
		body["percentages"] = []string{"70", "20"}
		status := env.do(t, http.MethodPost, "/api/v1/expenses", alice.Token, body, nil)
		if status != http.StatusBadRequest {
			t.Errorf("bad percentages = %d, want 400", status)
		}
	})

	t.Run("requester must be payer or participant", func(t *testing.T) {
		carol := env.registerUser(t, "carol")
		body := base()
		body["payer_id"] = alice.ID
		status := env.do(t, http.MethodPost, "/api/v1/expenses", carol.Token, body, nil)
		if status != http.StatusForbidden {
			t.Errorf("bystander create = %d, want 403", status)
		}
	})
}
