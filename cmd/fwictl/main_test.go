package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/fwi-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storeDir = "../../internal/artifact/testdata/store"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPredict_Text(t *testing.T) {
	out, err := execute(t, "predict", "--artifacts", storeDir,
		"--temperature", "25", "--rh", "50", "--ws", "15", "--ffmc", "85", "--dmc", "20", "--isi", "5", "--classes", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "Model:      Ridge Regression")
	assert.Contains(t, out, "FWI:        9.42")
	assert.Contains(t, out, "Risk level: Moderate")
	assert.Contains(t, out, "Moderate fire danger.")
}

func TestPredict_JSONWithDefaults(t *testing.T) {
	out, err := execute(t, "predict", "--artifacts", storeDir, "--model", "Decision Tree", "--json")
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "Decision Tree", body["model"])
	assert.InDelta(t, 12.4, body["fwi"], 1e-9)
	assert.Equal(t, "Moderate", body["risk_level"])

	inputs := body["inputs"].(map[string]any)
	assert.InDelta(t, domain.DefaultInputs().FFMC, inputs["FFMC"], 0)
}

func TestPredict_ArtifactDirFromEnv(t *testing.T) {
	t.Setenv("ARTIFACT_DIR", storeDir)
	_, err := execute(t, "predict", "--model", "SVR")
	assert.NoError(t, err)
}

func TestPredict_OutOfBounds(t *testing.T) {
	_, err := execute(t, "predict", "--artifacts", storeDir, "--rh", "120")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestPredict_UnknownModel(t *testing.T) {
	_, err := execute(t, "predict", "--artifacts", storeDir, "--model", "XGBoost")
	require.Error(t, err)
	assert.True(t, domain.IsUnknownModel(err))
}

func TestModels(t *testing.T) {
	out, err := execute(t, "models", "--artifacts", storeDir)
	require.NoError(t, err)

	assert.Contains(t, out, "Ridge Regression")
	assert.Contains(t, out, "tree, 7 nodes, depth 2")
	assert.Contains(t, out, "forest, 3 trees")
	assert.Contains(t, out, "svr, 3 support vectors")
}

func TestModels_MissingStore(t *testing.T) {
	_, err := execute(t, "models", "--artifacts", t.TempDir())
	var lerr *domain.ArtifactLoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "manifest", lerr.Artifact)
}

func TestCheck_Passes(t *testing.T) {
	out, err := execute(t, "check", "--artifacts", storeDir, "--steps", "5")
	require.NoError(t, err)

	assert.Contains(t, out, "Phase 3: Physical bounds sweep")
	assert.Contains(t, out, "Models: 4, inputs: 9, steps per input: 5")
	assert.Contains(t, out, "All checks passed.")
}

func TestCheck_ReportsInferenceFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.CopyFS(dir, os.DirFS(storeDir)))
	// Large coefficients overflow to +Inf at the upper DMC bound.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ridge.json"), []byte(`{
  "feature_names": ["Temperature", "RH", "Ws", "Rain", "FFMC", "DMC", "ISI", "Classes", "Region"],
  "coef": [0, 0, 0, 0, 0, 1e308, 0, 0, 0],
  "intercept": 0
}`), 0o600))

	out, err := execute(t, "check", "--artifacts", dir, "--steps", "2")
	require.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, "Check FAILED.")
	assert.Contains(t, out, "DMC=1000 Ridge Regression")
}

func TestCheck_InvalidSteps(t *testing.T) {
	_, err := execute(t, "check", "--artifacts", storeDir, "--steps", "0")
	assert.Error(t, err)
}

func TestSweepPoints(t *testing.T) {
	assert.Equal(t, []float64{0, 50, 100}, sweepPoints(domain.Schema[domain.FeatureRH], 2))
	assert.Equal(t, []float64{0, 1}, sweepPoints(domain.Schema[domain.FeatureRegion], 7))
}
