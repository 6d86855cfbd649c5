package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The live tests hit automationexercise.com. They only run with
// SHOPCHECK_LIVE=1 and never in -short mode.
func requireLive(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping live test in short mode")
	}
	if os.Getenv("SHOPCHECK_LIVE") != "1" {
		t.Skip("set SHOPCHECK_LIVE=1 to run against the real site")
	}
}

func TestLive_ReadOnlyCases(t *testing.T) {
	requireLive(t)

	code, stdout, stderr := run(t, "run",
		"--run", "list|search|login",
		"--scenarios=false",
		"--timeout", "20s",
	)
	assert.Equal(t, 0, code, stdout+stderr)
	assert.Contains(t, stdout, "PASS search product")
}

func TestLive_AccountLifecycle(t *testing.T) {
	requireLive(t)

	code, stdout, stderr := run(t, "run", "--run", "^account lifecycle$", "--timeout", "20s")
	assert.Equal(t, 0, code, stdout+stderr)
	assert.Contains(t, stdout, "5 passed")
}
