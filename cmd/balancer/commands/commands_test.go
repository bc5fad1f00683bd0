package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfbalancer/internal/contracts"
)

const samplePortfolio = `{
  "target": {"A": 0.5, "B": 0.5},
  "accounts": [{"name": "taxable", "tax_sheltered": false, "cash": 0, "positions": {"B": 100}}],
  "market": [{"symbol": "A", "price": 10}, {"symbol": "B", "price": 100}]
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ENV", "development")
	t.Setenv("HISTORY_ENABLED", "false")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", writeFile(t, "ok.json", samplePortfolio))
	require.NoError(t, err)
	assert.Contains(t, out, "1 accounts, 2 symbols, total $10,000.00")

	bad := writeFile(t, "bad.yaml", "target: {A: 0.2}\nmarket: [{symbol: A, price: 1}]\n")
	out, err = execute(t, "validate", bad)
	assert.ErrorIs(t, err, contracts.ErrAllocationSum)
	assert.Contains(t, out, "Allocations must add up to 1.0")
}

func TestBalanceCommand_JSON(t *testing.T) {
	defer func() { balanceFormat = "table" }()

	out, err := execute(t, "balance", writeFile(t, "p.json", samplePortfolio), "--format", "json")
	require.NoError(t, err)

	var results contracts.Results
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Equal(t, 500.0, results.Positions["taxable"]["A"])
	assert.Equal(t, 50.0, results.Positions["taxable"]["B"])
}

func TestBalanceCommand_UnknownFormatRejectedFirst(t *testing.T) {
	defer func() { balanceFormat = "table" }()

	// The file does not exist: the flag is checked before anything is loaded or run
	missing := filepath.Join(t.TempDir(), "missing.json")
	out, err := execute(t, "balance", missing, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
	assert.NotContains(t, out, "Rebalance")
}

func TestBalanceCommand_Table(t *testing.T) {
	out, err := execute(t, "balance", writeFile(t, "p.json", samplePortfolio), "--format", "table")
	require.NoError(t, err)

	assert.Contains(t, out, "$10,000.00")
	assert.Contains(t, out, "SELL")
	assert.Contains(t, out, "[taxable] cash $0.00")
	assert.Contains(t, out, "50.00%")
}
