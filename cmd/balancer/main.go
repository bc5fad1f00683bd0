package main

import (
	"os"

	"github.com/wonny/etfbalancer/cmd/balancer/commands"
)

// main is the entry point for the balancer CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/balancer [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
