//go:build tools
// +build tools

package e2ekit

// Import modules for external tools for correct version pinning und usage with "go run ..."
import (
	_ "github.com/networkteam/refresh"
)
