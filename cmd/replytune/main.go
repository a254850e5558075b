package main

import (
	"context"
	"os"

	"github.com/openeeap/replytune/internal/api/cli"
	"github.com/openeeap/replytune/internal/api/cli/commands"
)

var (
	// Version is the application version
	Version = "dev"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

func main() {
	info := commands.BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}

	// Execute CLI
	if err := cli.Execute(context.Background(), info); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
