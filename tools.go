//go:build tools
// +build tools

// Package tools pins the code generators run through `go generate`
// (mockgen) as module dependencies.
package chat_relay

import (
	_ "go.uber.org/mock/mockgen"
)
