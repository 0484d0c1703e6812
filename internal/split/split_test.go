package split

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/divvyhq/divvy/internal/money"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func decs(t *testing.T, in ...string) []decimal.Decimal {
	t.Helper()
	out := make([]decimal.Decimal, len(in))
	for i, s := range in {
		out[i] = dec(t, s)
	}
	return out
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name         string
		kind         Kind
		total        string
		participants []string
		inputs       []string
		wantErr      bool
		wantAmounts  []string
	}{
		{
			name:         "equal split divides evenly",
			kind:         Equal,
			total:        "90.00",
			participants: []string{"alice", "bob", "carol"},
			wantAmounts:  []string{"30.00", "30.00", "30.00"},
		},
		{
			name:         "equal split last participant absorbs remainder",
			kind:         Equal,
			total:        "100.00",
			participants: []string{"alice", "bob", "carol"},
			wantAmounts:  []string{"33.33", "33.33", "33.34"},
		},
		{
			name:         "equal split single participant",
			kind:         Equal,
			total:        "25.50",
			participants: []string{"alice"},
			wantAmounts:  []string{"25.50"},
		},
		{
			name:         "equal split remainder can round down",
			kind:         Equal,
			total:        "100.00",
			participants: []string{"a", "b", "c", "d", "e", "f"},
			wantAmounts:  []string{"16.67", "16.67", "16.67", "16.67", "16.67", "16.65"},
		},
		{
			name:         "equal split sub-cent total stays non-negative",
			kind:         Equal,
			total:        "0.02",
			participants: []string{"alice", "bob", "carol", "dave"},
			wantAmounts:  []string{"0.01", "0.01", "0.00", "0.00"},
		},
		{
			name:         "exact split uses supplied amounts",
			kind:         Exact,
			total:        "200.00",
			participants: []string{"alice", "bob", "carol"},
			inputs:       []string{"100.00", "60.00", "40.00"},
			wantAmounts:  []string{"100.00", "60.00", "40.00"},
		},
		{
			name:         "exact split allows zero share",
			kind:         Exact,
			total:        "50.00",
			participants: []string{"alice", "bob"},
			inputs:       []string{"50.00", "0.00"},
			wantAmounts:  []string{"50.00", "0.00"},
		},
		{
			name:         "exact split sum within epsilon accepted",
			kind:         Exact,
			total:        "100.00",
			participants: []string{"alice", "bob"},
			inputs:       []string{"50.00", "49.99"},
			wantAmounts:  []string{"50.00", "49.99"},
		},
		{
			name:         "exact split sum mismatch rejected",
			kind:         Exact,
			total:        "100.00",
			participants: []string{"alice", "bob"},
			inputs:       []string{"50.00", "40.00"},
			wantErr:      true,
		},
		{
			name:         "exact split negative amount rejected",
			kind:         Exact,
			total:        "100.00",
			participants: []string{"alice", "bob"},
			inputs:       []string{"110.00", "-10.00"},
			wantErr:      true,
		},
		{
			name:         "exact split arity mismatch rejected",
			kind:         Exact,
			total:        "100.00",
			participants: []string{"alice", "bob"},
			inputs:       []string{"100.00"},
			wantErr:      true,
		},
		{
			name:         "percentage split basic",
			kind:         Percentage,
			total:        "200.00",
			participants: []string{"alice", "bob", "carol"},
			inputs:       []string{"50", "30", "20"},
			wantAmounts:  []string{"100.00", "60.00", "40.00"},
		},
		{
			name:         "percentage split last absorbs rounding",
			kind:         Percentage,
			total:        "100.00",
			participants: []string{"alice", "bob", "carol"},
			inputs:       []string{"33.33", "33.33", "33.34"},
			wantAmounts:  []string{"33.33", "33.33", "33.34"},
		},
		{
			name:         "percentage split sub-cent total stays non-negative",
			kind:         Percentage,
			total:        "0.02",
			participants: []string{"alice", "bob", "carol", "dave"},
			inputs:       []string{"25", "25", "25", "25"},
			wantAmounts:  []string{"0.01", "0.01", "0.00", "0.00"},
		},
		{
			name:         "percentage not summing to 100 rejected",
			kind:         Percentage,
			total:        "100.00",
			participants: []string{"alice", "bob"},
			inputs:       []string{"60", "30"},
			wantErr:      true,
		},
		{
			name:         "percentage over 100 rejected",
			kind:         Percentage,
			total:        "100.00",
			participants: []string{"alice", "bob"},
			inputs:       []string{"150", "-50"},
			wantErr:      true,
		},
		{
			name:         "zero total rejected",
			kind:         Equal,
			total:        "0.00",
			participants: []string{"alice"},
			wantErr:      true,
		},
		{
			name:         "negative total rejected",
			kind:         Equal,
			total:        "-10.00",
			participants: []string{"alice"},
			wantErr:      true,
		},
		{
			name:         "no participants rejected",
			kind:         Equal,
			total:        "10.00",
			participants: []string{},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inputs []decimal.Decimal
			if tt.inputs != nil {
				inputs = decs(t, tt.inputs...)
			}

			shares, err := Compute(tt.kind, dec(t, tt.total), tt.participants, inputs)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Compute succeeded, want error")
				}
				if !errors.Is(err, ErrInvalidSplit) {
					t.Errorf("error %v does not wrap ErrInvalidSplit", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compute failed: %v", err)
			}

			if len(shares) != len(tt.wantAmounts) {
				t.Fatalf("got %d shares, want %d", len(shares), len(tt.wantAmounts))
			}
			sum := decimal.Zero
			for i, share := range shares {
				if share.UserID != tt.participants[i] {
					t.Errorf("share %d user = %s, want %s", i, share.UserID, tt.participants[i])
				}
				if got := money.Format(share.Amount); got != tt.wantAmounts[i] {
					t.Errorf("share %d amount = %s, want %s", i, got, tt.wantAmounts[i])
				}
				sum = sum.Add(share.Amount)
			}
			// Equal and percentage splits sum to the total exactly; exact
			// splits are allowed a one-cent slack.
			if tt.kind == Exact {
				if !money.WithinEpsilon(sum, dec(t, tt.total)) {
					t.Errorf("shares sum to %s, want %s within epsilon", sum, tt.total)
				}
			} else if !sum.Equal(dec(t, tt.total)) {
				t.Errorf("shares sum to %s, want exactly %s", sum, tt.total)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"equal", "exact", "percentage"} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseKind("shares"); !errors.Is(err, ErrInvalidSplit) {
		t.Errorf("ParseKind(\"shares\") = %v, want ErrInvalidSplit", err)
	}
}

func TestValidate(t *testing.T) {
	total := dec(t, "100.00")

	shares := []Share{
		{UserID: "alice", Amount: dec(t, "60.00")},
		{UserID: "bob", Amount: dec(t, "40.00")},
	}
	if err := Validate(Exact, total, shares); err != nil {
		t.Errorf("Validate rejected a consistent share list: %v", err)
	}

	bad := []Share{
		{UserID: "alice", Amount: dec(t, "60.00")},
		{UserID: "bob", Amount: dec(t, "50.00")},
	}
	if err := Validate(Exact, total, bad); !errors.Is(err, ErrInvalidSplit) {
		t.Errorf("Validate accepted mismatched shares, err = %v", err)
	}

	if err := Validate(Equal, total, nil); !errors.Is(err, ErrInvalidSplit) {
		t.Errorf("Validate accepted empty share list, err = %v", err)
	}
}
