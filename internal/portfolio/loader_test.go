package portfolio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
target:
  VTI: 0.6
  BND: 0.4
accounts:
  - name: ira
    tax_sheltered: true
    cash: 1000
    positions:
      BND: 10
  - name: taxable
    cash: 250.5
    positions: {}
market:
  - symbol: VTI
    price: 250
  - symbol: BND
    price: 72.5
    div_yield: 0.034
no_taxed_sales: true
no_sale_accounts: [ira]
`

const sampleJSON = `{
  "target": {"VTI": 0.6, "BND": 0.4},
  "accounts": [
    {"name": "ira", "tax_sheltered": true, "cash": 1000, "positions": {"BND": 10}},
    {"name": "taxable", "tax_sheltered": false, "cash": 250.5, "positions": {}}
  ],
  "market": [
    {"symbol": "VTI", "price": 250},
    {"symbol": "BND", "price": 72.5, "div_yield": 0.034}
  ],
  "no_taxed_sales": true,
  "no_sale_accounts": ["ira"]
}`

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"p.json", FormatJSON, false},
		{"p.yaml", FormatYAML, false},
		{"dir/P.YML", FormatYAML, false},
		{"p.toml", "", true},
		{"p", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_YAMLAndJSONAgree(t *testing.T) {
	fromYAML, err := Parse([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)
	fromJSON, err := Parse([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)

	assert.Equal(t, 0.6, fromYAML.Target["VTI"])
	require.Len(t, fromYAML.Accounts, 2)
	assert.True(t, fromYAML.Accounts[0].TaxSheltered)
	assert.Equal(t, 10.0, fromYAML.Accounts[0].Positions["BND"])
	assert.False(t, fromYAML.TaxedSalesAllowed())
	assert.True(t, fromYAML.IsNoSale("ira"))
	assert.Equal(t, 0.034, fromYAML.Yields()["BND"])
	assert.NoError(t, fromYAML.Validate())
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`{"target": {}, "no_taxed_sale": true}`), FormatJSON)
	assert.Error(t, err)

	_, err = Parse([]byte("target: {}\nno_taxed_sale: true\n"), FormatYAML)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "portfolio.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, p.Market, 2)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}
