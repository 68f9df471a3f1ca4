package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(id, desc string, amount float64, date string) Transaction {
	return Transaction{ID: id, Description: desc, Amount: amount, Kind: KindIncome, Date: date}
}

func TestDedupe_Empty(t *testing.T) {
	require.Empty(t, Dedupe(nil))
	require.Empty(t, Dedupe([]Transaction{}))
}

func TestDedupe_IdentityFirstWins(t *testing.T) {
	in := []Transaction{
		tx("1", "pix mensalidade", 50, "2024-01-01"),
		tx("1", "pix mensalidade edited", 60, "2024-01-02"),
		tx("1", "pix mensalidade", 50, "2024-01-01"),
	}
	out := Dedupe(in)
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, 50.0, out[0].Amount)
}

func TestDedupe_FingerprintGreaterIdentityWins(t *testing.T) {
	in := []Transaction{
		tx("100", "churrasco", 120, "2024-03-05"),
		tx("200", "churrasco", 120, "2024-03-05"),
	}
	out := Dedupe(in)
	require.Len(t, out, 1)
	assert.Equal(t, "200", out[0].ID)
}

func TestDedupe_SurvivorKeepsEarlierPosition(t *testing.T) {
	in := []Transaction{
		tx("100", "churrasco", 120, "2024-03-05"),
		tx("5", "aluguel quadra", 300, "2024-03-06"),
		tx("200", "Churrasco ", 120, "2024-03-05"), // same fingerprint as "100"
	}
	out := Dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, "200", out[0].ID) // replaced in place
	assert.Equal(t, "5", out[1].ID)
}

func TestDedupe_Idempotent(t *testing.T) {
	in := []Transaction{
		tx("1", "a", 10, "2024-01-01"),
		tx("2", "a", 10, "2024-01-01"),
		tx("3", "b", 20, "2024-01-02"),
		tx("3", "b", 20, "2024-01-02"),
		tx("4", "", 0, ""),
	}
	once := Dedupe(in)
	twice := Dedupe(once)
	assert.Equal(t, once, twice)
}

func TestDedupe_NoDoubleCount(t *testing.T) {
	// Four records, three distinct fingerprints.
	in := []Transaction{
		tx("1", "mensalidade", 50, "2024-01-01"),
		tx("2", "mensalidade", 50, "2024-01-01"),
		tx("3", "uniforme", 80, "2024-01-02"),
		tx("4", "bola", 30, "2024-01-03"),
	}
	out := Dedupe(in)
	require.Len(t, out, 3)

	var inSum, outSum float64
	for _, t := range in {
		inSum += t.Amount
	}
	for _, t := range out {
		outSum += t.Amount
	}
	assert.Less(t, outSum, inSum)
	assert.Equal(t, 160.0, outSum)
}

func TestDedupe_MissingFieldsDoNotCrash(t *testing.T) {
	in := []Transaction{
		{ID: "1"},
		{ID: "2", Amount: 5},
	}
	out := Dedupe(in)
	require.Len(t, out, 2)
}

func TestMerge_RedeliveryLeavesLengthUnchanged(t *testing.T) {
	current := []Transaction{tx("1", "a", 10, "2024-01-01"), tx("2", "b", 20, "2024-01-02")}
	out := Merge(current, tx("1", "a", 10, "2024-01-01"))
	assert.Len(t, out, 2)
}

func TestMerge_OfflineEchoCollapsesToNewerIdentity(t *testing.T) {
	// A server echo and a local timestamp record describing the same real
	// transaction must collapse to one survivor.
	current := []Transaction{tx("1", "A", 100, "2024-01-01")}
	local := tx("1700000000000", "A", 100, "2024-01-01")
	out := Merge(current, local)
	require.Len(t, out, 1)
	assert.Equal(t, "1700000000000", out[0].ID)
}

func TestSum(t *testing.T) {
	txs := []Transaction{
		{ID: "1", Kind: KindIncome, Amount: 100},
		{ID: "2", Kind: KindExpense, Amount: 30},
		{ID: "3", Kind: KindIncome, Amount: 20},
	}
	income, expense, balance := Sum(txs)
	assert.Equal(t, 120.0, income)
	assert.Equal(t, 30.0, expense)
	assert.Equal(t, 90.0, balance)
}
