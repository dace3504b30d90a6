package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsight/coinsight-go/internal/config"
)

func trainConfig() *config.Config {
	return &config.Config{Model: config.ModelConfig{
		ArtifactPath:    "./data/ridge_model.json",
		Alpha:           1.0,
		HoldoutFraction: 0.2,
		LagDepth:        3,
	}}
}

func TestResolveModelOverrides_Defaults(t *testing.T) {
	cmd := newTrainCommand()
	require.NoError(t, cmd.Flags().Parse(nil))

	alpha, holdout, out := resolveModelOverrides(cmd, trainConfig(), 0, 0, "")
	assert.Equal(t, 1.0, alpha)
	assert.Equal(t, 0.2, holdout)
	assert.Equal(t, "./data/ridge_model.json", out)
}

func TestResolveModelOverrides_ExplicitZeroAlpha(t *testing.T) {
	cmd := newTrainCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--alpha", "0"}))

	// A passed zero must survive, not collapse to the configured default.
	alpha, holdout, out := resolveModelOverrides(cmd, trainConfig(), 0, 0, "")
	assert.Equal(t, 0.0, alpha)
	assert.Equal(t, 0.2, holdout)
	assert.Equal(t, "./data/ridge_model.json", out)
}

func TestResolveModelOverrides_ExplicitValuesKept(t *testing.T) {
	cmd := newTrainCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--alpha", "0.5", "--holdout", "0.3", "--out", "/tmp/model.json"}))

	alpha, holdout, out := resolveModelOverrides(cmd, trainConfig(), 0.5, 0.3, "/tmp/model.json")
	assert.Equal(t, 0.5, alpha)
	assert.Equal(t, 0.3, holdout)
	assert.Equal(t, "/tmp/model.json", out)
}

func TestTrainDateRange(t *testing.T) {
	r, err := trainDateRange("", "")
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = trainDateRange("2021-01-01", "2021-06-30")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "2021-01-01", r.Start.Format("2006-01-02"))
	assert.Equal(t, "2021-06-30", r.End.Format("2006-01-02"))

	_, err = trainDateRange("2021-01-01", "")
	assert.Error(t, err)

	_, err = trainDateRange("2021-06-30", "2021-01-01")
	assert.Error(t, err)
}
