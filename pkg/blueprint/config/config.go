// Package config holds run configuration for a single extraction: how many
// samples to pull from the bound tree, and how long to let it run.
package config

import (
	"encoding/json"
	"time"
)

// Config configures a single extraction run.
type Config struct {
	// NumSamples is how many extractions to pull from the bound tree. 0
	// means pull none; a negative value means exhaust the tree.
	NumSamples int
	// Timeout bounds how long the run may take. 0 means no timeout.
	Timeout time.Duration
}

// Default is the configuration a run uses when none is given: one sample,
// no timeout.
var Default = Config{NumSamples: 1}

// jsonConfig mirrors Config's JSON shape, with Timeout expressed in
// seconds to match the fixture format (and the original's -1-means-none
// convention: a negative or zero timeout both mean "no timeout").
type jsonConfig struct {
	NumSamples int `json:"num_samples"`
	Timeout    int `json:"timeout"`
}

// UnmarshalJSON implements json.Unmarshaler, reading timeout as a count of
// seconds.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw jsonConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.NumSamples = raw.NumSamples
	if raw.Timeout > 0 {
		c.Timeout = time.Duration(raw.Timeout) * time.Second
	} else {
		c.Timeout = 0
	}
	return nil
}

// MarshalJSON implements json.Marshaler, writing timeout as a count of
// seconds (0 for no timeout).
func (c Config) MarshalJSON() ([]byte, error) {
	seconds := 0
	if c.Timeout > 0 {
		seconds = int(c.Timeout / time.Second)
	}
	return json.Marshal(jsonConfig{NumSamples: c.NumSamples, Timeout: seconds})
}
