package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/Veraticus/listwise/internal/pricing"
	"github.com/Veraticus/listwise/internal/profit"
	"github.com/Veraticus/listwise/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// setupCLI points the commands at a fresh database seeded with the standard fixture.
func setupCLI(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()

	dir := t.TempDir()
	viper.Set("database.path", filepath.Join(dir, "listwise.db"))

	ctx := context.Background()
	store, err := initStorage(ctx)
	require.NoError(t, err)
	require.NoError(t, store.SeedReferenceData(ctx, testutil.FixtureStandard.Build()))
	require.NoError(t, store.Close())
	return dir
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeYAML(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := yaml.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestEvaluateCommand(t *testing.T) {
	setupCLI(t)

	tests := []struct {
		name     string
		args     []string
		expected []string
		wantErr  bool
	}{
		{
			name:     "watch goes to ebay main",
			args:     []string{"--sku", "W-1", "--category", "Watches", "--hs", "9102.11", "--price", "30000", "--score", "80", "--stock", "3"},
			expected: []string{"W-1 → ebay/us-main", "specializes in Camera"},
		},
		{
			name:     "online channel leaves only the shopify store",
			args:     []string{"--sku", "K-1", "--category", "Weapons", "--price", "5000", "--score", "50", "--stock", "1", "--channels", "online"},
			expected: []string{"K-1 → shopify/store"},
		},
		{
			name:    "missing sku",
			args:    []string{"--category", "Watches"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, evaluateCmd(), tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.expected {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestEvaluateCommand_ReferenceFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()

	dir := t.TempDir()
	viper.Set("reference.file", writeYAML(t, dir, "reference.yaml", testutil.FixtureStandard.Build()))

	out, err := runCommand(t, evaluateCmd(), "--sku", "W-1", "--category", "Watches", "--price", "30000", "--score", "80", "--stock", "3", "--json")
	require.NoError(t, err)

	var res model.ListingStrategyResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.True(t, res.Decision.ShouldList)
	assert.Equal(t, "ebay/us-main", res.Decision.Target.Key())
	assert.NoFileExists(t, filepath.Join(dir, "listwise.db"))
}

func TestBatchCommand_LogsDecisions(t *testing.T) {
	dir := setupCLI(t)

	items := []model.Item{
		{SKU: "W-1", Category: "Watches", Condition: model.ConditionNew, HSCode: testutil.Ptr("9102.11"), Price: 30000, GlobalScore: 80, StockQuantity: 3},
		{SKU: "C-1", Category: "Camera", Condition: model.ConditionUsed, HSCode: testutil.Ptr("8525.80"), Price: 45000, GlobalScore: 50, StockQuantity: 1},
		{SKU: "", Category: "Broken"},
	}
	path := writeYAML(t, dir, "items.yaml", items)

	out, err := runCommand(t, batchCmd(), path, "--json", "--workers", "2")
	require.NoError(t, err)

	var summary struct {
		RunID  string `json:"run_id"`
		Listed int    `json:"listed"`
		Failed int    `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace([]byte(out)), &summary))
	assert.Equal(t, 2, summary.Listed)
	assert.Equal(t, 1, summary.Failed)
	require.NotEmpty(t, summary.RunID)

	out, err = runCommand(t, decisionsCmd(), "--run", summary.RunID, "--json")
	require.NoError(t, err)
	var records []model.DecisionRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Len(t, records, 2)

	out, err = runCommand(t, decisionsCmd(), "--sku", "C-1")
	require.NoError(t, err)
	assert.Contains(t, out, "ebay/us-sub")
}

func TestBreakevenCommand(t *testing.T) {
	setupCLI(t)

	out, err := runCommand(t, breakevenCmd(),
		"--sku", "CAM-1", "--cost", "15000", "--hs", "8525.80", "--origin", "JP", "--weight", "400", "--rate", "150", "--json")
	require.NoError(t, err)

	var res pricing.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "CAM-1", res.SKU)
	assert.True(t, res.HasCompleteData)
	assert.Equal(t, "small", res.ShippingTier.Name)
	assert.InDelta(t, 0.171, res.Tariff.TotalRate, 1e-9)
	assert.Greater(t, res.BreakEvenPrice, 100.0)
	assert.GreaterOrEqual(t, res.RoundedPrice, res.BreakEvenPrice)
}

func TestBreakevenCommand_VariantGroup(t *testing.T) {
	dir := setupCLI(t)

	inputs := []pricing.Input{
		{SKU: "V-S", CostOrigin: 3000, HSCode: testutil.Ptr("9503"), OriginCountry: testutil.Ptr("CN"), WeightGrams: testutil.Ptr(300.0)},
		{SKU: "V-L", CostOrigin: 4500, HSCode: testutil.Ptr("9503"), OriginCountry: testutil.Ptr("CN"), WeightGrams: testutil.Ptr(1500.0)},
	}
	path := writeYAML(t, dir, "inputs.yaml", inputs)

	out, err := runCommand(t, breakevenCmd(), "--inputs", path, "--rate", "150", "--json")
	require.NoError(t, err)

	var batch pricing.BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	assert.Equal(t, 2, batch.Succeeded)
	require.Len(t, batch.Items, 2)
	assert.Equal(t, batch.Items[1].Result.BreakEvenPrice, batch.VariantGroupFloor())

	out, err = runCommand(t, breakevenCmd(), "--inputs", path, "--rate", "150", "--round-step", "0.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Variant group floor")
}

func TestBreakevenCommand_RequiresRate(t *testing.T) {
	setupCLI(t)

	_, err := runCommand(t, breakevenCmd(), "--cost", "1000")
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestProfitCommand(t *testing.T) {
	setupCLI(t)

	tests := []struct {
		name      string
		args      []string
		wantFirst string
		wantErr   bool
	}{
		{
			name:      "fixed price ranks ebay first",
			args:      []string{"--price", "100", "--cost", "50", "--weight", "0.5", "--json"},
			wantFirst: "ebay",
		},
		{
			name:      "strategy per marketplace",
			args:      []string{"--strategy", "percentage", "--markup", "1", "--cost", "50", "--weight", "0.5", "--json"},
			wantFirst: "ebay",
		},
		{
			name:    "price and strategy together",
			args:    []string{"--price", "100", "--strategy", "fixed", "--json"},
			wantErr: true,
		},
		{
			name:    "unknown strategy",
			args:    []string{"--strategy", "auction", "--cost", "50", "--json"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, profitCmd(), tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			var results []profit.Result
			require.NoError(t, json.Unmarshal([]byte(out), &results))
			require.Len(t, results, 2)
			assert.Equal(t, tt.wantFirst, results[0].Marketplace)
		})
	}
}

func TestRulesCheckCommand(t *testing.T) {
	setupCLI(t)

	out, err := runCommand(t, rulesCmd(), "check", "--platform", "qoo10", "--platform", "ebay", "--category", "Camera", "--condition", "used")
	require.NoError(t, err)
	assert.Contains(t, out, "Qoo10 lists new items only")
	assert.Contains(t, out, "allowed")

	out, err = runCommand(t, rulesCmd(), "list", "amazon_us")
	require.NoError(t, err)
	assert.Contains(t, out, "Weapons, Firearms, Knives")
	assert.NotContains(t, out, "Qoo10")
}

func TestLockCommand(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()

	out, err := runCommand(t, lockCmd(), "show", "W-1")
	require.NoError(t, err)
	assert.Contains(t, out, "W-1 is not locked")

	out, err = runCommand(t, lockCmd(), "acquire", "W-1", "ebay", "us-main")
	require.NoError(t, err)
	assert.Contains(t, out, "W-1 locked to ebay/us-main")
}

func TestSeedAndMigrateCommands(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()
	dir := t.TempDir()
	viper.Set("database.path", filepath.Join(dir, "listwise.db"))

	out, err := runCommand(t, migrateCmd(), "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 0")

	_, err = runCommand(t, seedCmd())
	require.Error(t, err)

	out, err = runCommand(t, seedCmd(), writeYAML(t, dir, "ref.yaml", testutil.FixtureStandard.Build()))
	require.NoError(t, err)
	assert.Contains(t, out, "6 accounts")

	out, err = runCommand(t, migrateCmd(), "--status")
	require.NoError(t, err)
	assert.NotContains(t, out, "Pending")
}
