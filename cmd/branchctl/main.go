package main

import (
	"os"

	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error().Err(err).Msg("branchctl failed")
		os.Exit(1)
	}
}
