// Command ledgerctl is the operator CLI for the trading ledger database.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"eva_exchange/internal/platform/logger"
)

func main() {
	_ = godotenv.Load(".env")
	logger.Setup()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
