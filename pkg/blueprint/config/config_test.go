package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigJSONRoundTrip(t *testing.T) {
	c := Config{NumSamples: 30, Timeout: 5 * time.Second}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	var got Config
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, c, got)
}

func TestConfigZeroTimeoutMeansNoTimeout(t *testing.T) {
	var c Config
	require.NoError(t, json.Unmarshal([]byte(`{"num_samples":1,"timeout":-1}`), &c))
	require.Zero(t, c.Timeout)
}

func TestConfigNegativeNumSamplesMeansExhaust(t *testing.T) {
	var c Config
	require.NoError(t, json.Unmarshal([]byte(`{"num_samples":-1,"timeout":0}`), &c))
	require.Negative(t, c.NumSamples)
}
