package main

import (
	"testing"

	"github.com/nspcc-dev/starkroot/pkg/config"
)

func TestCLIVersion(t *testing.T) {
	config.Version = "0.1.0-test" // Zero-length version string disables '--version' completely.
	e := newExecutor(t)
	e.Run(t, "starkroot", "--version")
	e.checkNextLine(t, "^starkroot$")
	e.checkNextLine(t, "^Version: 0.1.0-test$")
	e.checkNextLine(t, "^GoVersion:")
	e.checkEOF(t)
}
