// cmd/crossbench/main.go
package main

import (
	crossbench "github.com/mwiater/crossbench/internal/commands"
)

// Set by -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = crossbench.SetVersionInfo
	executeCmd     = crossbench.Execute
)

// main injects build metadata and hands control to the cobra root command.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
