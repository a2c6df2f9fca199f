package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lunchJSON uses the legacy flat charge fields.
const lunchJSON = `{
  "store": "Luigi's",
  "items": [
    {"name": "Pizza", "quantity": 1, "unit_price": 20, "total": 20},
    {"name": "Beer", "quantity": 2, "unit_price": "$5.00", "total": "10.00"}
  ],
  "subtotal": 30,
  "tax": 3,
  "total_amount": 33
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	outputJSON, verbose = false, false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := execute(t, "version")
	assert.NoError(t, err)
	assert.Contains(t, out, "billsplit version test-version-1.0.0")
}

func TestReconcileCmd(t *testing.T) {
	path := writeFile(t, "lunch.json", lunchJSON)

	out, err := execute(t, "reconcile", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario: tax_exclusive")
	assert.Contains(t, out, "Items: 3")
	assert.Contains(t, out, "Tax (10.00%): $3.00")
	assert.Contains(t, out, "Total: $33.00")
}

func TestReconcileCmd_JSON(t *testing.T) {
	path := writeFile(t, "lunch.json", lunchJSON)

	out, err := execute(t, "reconcile", "--json", path)
	require.NoError(t, err)

	var got struct {
		Scenario string  `json:"tax_scenario"`
		Subtotal float64 `json:"subtotal"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "tax_exclusive", got.Scenario)
	assert.Equal(t, 30.0, got.Subtotal)
}

func TestReconcileCmd_Failure(t *testing.T) {
	path := writeFile(t, "bad.json", `{
  "items": [{"name": "Soup", "quantity": 1, "unit_price": 8, "total_price": 8}],
  "taxes_or_charges": [{"name": "VAT", "amount": 1}],
  "grand_total": 20
}`)

	out, err := execute(t, "reconcile", path)
	assert.ErrorIs(t, err, errNotReconciled)
	assert.Contains(t, out, "with or without the taxes and charges")
	assert.Contains(t, out, "Items total: $8.00")
}

func TestNormalizeCmd(t *testing.T) {
	path := writeFile(t, "lunch.json", lunchJSON)

	out, err := execute(t, "normalize", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1x Beer @ $5.00 = $5.00")
	assert.Contains(t, out, "Items total: $30.00")
}

func TestSplitCmd(t *testing.T) {
	path := writeFile(t, "split.json", `{
  "receipt": `+lunchJSON+`,
  "participants": [{"id": "a", "name": "Alice"}, {"id": "b", "name": "Bob"}],
  "assignments": [
    {"item_index": 0, "participant_ids": ["a", "b"]},
    {"item_index": 1, "participant_ids": ["b"]},
    {"item_index": 2, "participant_ids": ["b"]}
  ],
  "payer_id": "a"
}`)

	out, err := execute(t, "split", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Pizza: $10.00 (shared with Bob)")
	assert.Contains(t, out, "Total: $11.00")
	assert.Contains(t, out, "Total: $22.00")
	assert.Contains(t, out, "Grand Total: $33.00")
	assert.Contains(t, out, "Bob owes Alice $22.00")
}

func TestSplitCmd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no receipt", `{"participants": [{"id": "a", "name": "A"}]}`},
		{"no participants", `{"receipt": ` + lunchJSON + `}`},
		{"bad mode", `{"receipt": ` + lunchJSON + `, "participants": [{"id": "a", "name": "A"}], "modes": {"tax": "random"}}`},
		{"not json", `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "split.json", tt.content)
			_, err := execute(t, "split", path)
			assert.Error(t, err)
		})
	}
}
