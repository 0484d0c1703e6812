package ledger

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/divvyhq/divvy/internal/money"
)

func TestSimplify(t *testing.T) {
	t.Run("empty ledger yields no transactions", func(t *testing.T) {
		l := New()
		txns, err := l.Simplify([]string{"alice", "bob"})
		if err != nil {
			t.Fatalf("Simplify failed: %v", err)
		}
		if len(txns) != 0 {
			t.Errorf("got %d transactions, want 0", len(txns))
		}
	})

	t.Run("debt cycle cancels to nothing", func(t *testing.T) {
		// A -> B -> C -> A, 10 each. Every net position is zero.
		l := New()
		l.ApplyShares("bob", shares(t, "alice", "10.00"))
		l.ApplyShares("carol", shares(t, "bob", "10.00"))
		l.ApplyShares("alice", shares(t, "carol", "10.00"))

		txns, err := l.Simplify([]string{"alice", "bob", "carol"})
		if err != nil {
			t.Fatalf("Simplify failed: %v", err)
		}
		if len(txns) != 0 {
			t.Errorf("cycle produced %d transactions, want 0: %v", len(txns), txns)
		}
	})

	t.Run("one creditor two debtors", func(t *testing.T) {
		// Alice is owed 80 net; Bob owes 50, Carol owes 30.
		l := New()
		l.ApplyShares("alice", shares(t, "bob", "50.00", "carol", "30.00"))

		txns, err := l.Simplify([]string{"alice", "bob", "carol"})
		if err != nil {
			t.Fatalf("Simplify failed: %v", err)
		}

		want := []Transaction{
			{FromUserID: "bob", ToUserID: "alice", Amount: dec(t, "50.00")},
			{FromUserID: "carol", ToUserID: "alice", Amount: dec(t, "30.00")},
		}
		assertTransactions(t, txns, want)
	})

	t.Run("chain collapses through the middleman", func(t *testing.T) {
		// Bob owes Alice 40 and Carol owes Bob 40: one payment suffices.
		l := New()
		l.ApplyShares("alice", shares(t, "bob", "40.00"))
		l.ApplyShares("bob", shares(t, "carol", "40.00"))

		txns, err := l.Simplify([]string{"alice", "bob", "carol"})
		if err != nil {
			t.Fatalf("Simplify failed: %v", err)
		}

		want := []Transaction{
			{FromUserID: "carol", ToUserID: "alice", Amount: dec(t, "40.00")},
		}
		assertTransactions(t, txns, want)
	})

	t.Run("at most n minus one transactions", func(t *testing.T) {
		l := New()
		users := []string{"a", "b", "c", "d", "e"}
		l.ApplyShares("a", shares(t, "b", "13.00", "c", "27.00", "d", "8.00", "e", "52.00"))
		l.ApplyShares("b", shares(t, "c", "19.00", "e", "4.00"))
		l.ApplyShares("c", shares(t, "d", "33.00"))

		txns, err := l.Simplify(users)
		if err != nil {
			t.Fatalf("Simplify failed: %v", err)
		}
		if len(txns) > len(users)-1 {
			t.Errorf("got %d transactions for %d users, want at most %d",
				len(txns), len(users), len(users)-1)
		}
		assertZeroesNets(t, l, users, txns)
	})

	t.Run("deterministic across repeated calls", func(t *testing.T) {
		l := New()
		// Bob and Carol owe identical amounts; the tie must break the
		// same way every time.
		l.ApplyShares("alice", shares(t, "bob", "25.00", "carol", "25.00"))

		first, err := l.Simplify([]string{"alice", "bob", "carol"})
		if err != nil {
			t.Fatalf("Simplify failed: %v", err)
		}
		for i := 0; i < 10; i++ {
			again, err := l.Simplify([]string{"carol", "alice", "bob"})
			if err != nil {
				t.Fatalf("Simplify failed: %v", err)
			}
			if !reflect.DeepEqual(first, again) {
				t.Fatalf("run %d differs: %v vs %v", i, first, again)
			}
		}
		if first[0].FromUserID != "bob" {
			t.Errorf("tie should break toward the lower user ID, got %s first", first[0].FromUserID)
		}
	})

	t.Run("uneven ledger with rounding", func(t *testing.T) {
		l := New()
		// 100 split three ways, Alice paying: Bob 33.33, Carol 33.34.
		l.ApplyShares("alice", shares(t, "bob", "33.33", "carol", "33.34"))

		txns, err := l.Simplify([]string{"alice", "bob", "carol"})
		if err != nil {
			t.Fatalf("Simplify failed: %v", err)
		}
		assertZeroesNets(t, l, []string{"alice", "bob", "carol"}, txns)
	})

	t.Run("asymmetric corruption detected", func(t *testing.T) {
		// Write one side of a pair directly, violating symmetry.
		l := New()
		l.balances["alice"] = map[string]decimal.Decimal{"bob": dec(t, "10.00")}

		_, err := l.Simplify([]string{"alice", "bob"})
		if !errors.Is(err, ErrLedgerInvariant) {
			t.Fatalf("Simplify = %v, want ErrLedgerInvariant", err)
		}
	})

	t.Run("debts to outsiders are excluded", func(t *testing.T) {
		// Carol is not in the set, so her debt to Alice must neither
		// appear in the plan nor unbalance the matching.
		l := New()
		l.ApplyShares("alice", shares(t, "bob", "30.00", "carol", "30.00"))

		txns, err := l.Simplify([]string{"alice", "bob"})
		if err != nil {
			t.Fatalf("Simplify failed: %v", err)
		}
		assertTransactions(t, txns, []Transaction{
			{FromUserID: "bob", ToUserID: "alice", Amount: dec(t, "30.00")},
		})
		if got := l.BalanceBetween("alice", "carol"); !got.Equal(dec(t, "30.00")) {
			t.Errorf("bal(alice,carol) = %s, want 30.00 untouched", got)
		}
	})
}

func assertTransactions(t *testing.T, got, want []Transaction) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d transactions, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].FromUserID != want[i].FromUserID || got[i].ToUserID != want[i].ToUserID {
			t.Errorf("txn %d = %s->%s, want %s->%s",
				i, got[i].FromUserID, got[i].ToUserID, want[i].FromUserID, want[i].ToUserID)
		}
		if !got[i].Amount.Equal(want[i].Amount) {
			t.Errorf("txn %d amount = %s, want %s", i, got[i].Amount, want[i].Amount)
		}
	}
}

// assertZeroesNets replays the proposed transactions against the net
// positions and checks every user lands within the settlement epsilon.
func assertZeroesNets(t *testing.T, l *Ledger, users []string, txns []Transaction) {
	t.Helper()
	nets := l.NetBalancesAmong(users)
	for _, txn := range txns {
		nets[txn.FromUserID] = nets[txn.FromUserID].Add(txn.Amount)
		nets[txn.ToUserID] = nets[txn.ToUserID].Sub(txn.Amount)
	}
	for _, id := range users {
		if !money.WithinEpsilon(nets[id], decimal.Zero) {
			t.Errorf("net(%s) = %s after applying plan, want ~0", id, nets[id])
		}
	}
}
