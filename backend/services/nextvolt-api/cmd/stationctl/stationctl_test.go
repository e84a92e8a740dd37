package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextvolt/backend/services/nextvolt-api/internal/vehicle"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRangeCommand(t *testing.T) {
	out, err := runCmd(t, "range", "--capacity", "60", "--consumption", "15", "--charge", "50")
	require.NoError(t, err)

	var est vehicle.RangeEstimate
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.InDelta(t, 30.0, est.AvailableKWh, 1e-9)
	assert.InDelta(t, 200.0, est.RangeKm, 1e-9)
}

func TestRangeCommandRejectsBadInput(t *testing.T) {
	_, err := runCmd(t, "range", "--capacity", "60", "--consumption", "15", "--charge", "120")
	assert.ErrorIs(t, err, vehicle.ErrInvalidCharge)

	_, err = runCmd(t, "range", "--consumption", "15")
	assert.Error(t, err, "capacity is required")
}

func TestSeedCommandNeedsInput(t *testing.T) {
	_, err := runCmd(t, "seed", "--dsn", "postgres://unused")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to seed")
}
