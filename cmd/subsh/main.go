package main

import (
	"github.com/pvaler/subsh/internal/cli"
	"github.com/pvaler/subsh/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
