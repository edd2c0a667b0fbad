package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/gource-tools/gource-tools/internal/cli"
)

func main() {
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
