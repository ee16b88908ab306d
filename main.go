package main

import (
	"os"

	"go.uber.org/zap"

	"spin/cmd"
	"spin/internal/logging"
)

func main() {
	if err := logging.InitLogger(); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	code := cmd.Execute()

	if err := logging.Sync(); err != nil {
		logging.Logger().Error("failed to sync logger on exit", zap.Error(err))
	}
	os.Exit(code)
}
