package mcmc_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/bayesdag/mcmc"
)

func TestLoadConfig(t *testing.T) {
	doc := `
generations: 250
seed: 42
heat: 0.5
tuningInterval: 50
printInterval: 25
runName: cold
`
	got, err := mcmc.LoadConfig(strings.NewReader(doc))
	require.NoError(t, err)
	want := mcmc.Config{
		Generations:    250,
		Seed:           42,
		Heat:           0.5,
		TuningInterval: 50,
		PrintInterval:  25,
		RunName:        "cold",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	got, err := mcmc.LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, mcmc.DefaultConfig(), got)

	got, err = mcmc.LoadConfig(strings.NewReader("seed: 7\n"))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.Seed)
	assert.Equal(t, mcmc.DefaultConfig().Generations, got.Generations)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := mcmc.LoadConfig(strings.NewReader("generation: 10\n"))
	require.ErrorIs(t, err, mcmc.ErrInvalidConfig, "unknown key")

	_, err = mcmc.LoadConfig(strings.NewReader("generations: [1, 2]\n"))
	require.ErrorIs(t, err, mcmc.ErrInvalidConfig)

	_, err = mcmc.LoadConfig(strings.NewReader("generations: 0\nheat: -1\n"))
	require.ErrorIs(t, err, mcmc.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "generations must be positive")
	assert.Contains(t, err.Error(), "heat must be positive")
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, mcmc.DefaultConfig().Validate())

	c := mcmc.DefaultConfig()
	c.TuningInterval = -1
	c.PrintInterval = -5
	err := c.Validate()
	require.ErrorIs(t, err, mcmc.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "tuning interval")
	assert.Contains(t, err.Error(), "print interval")
}
