package main

import (
	"context"
	"log"

	"equiphouse/cmd"
	"equiphouse/internal/config"
)

func main() {
	// Load .env file, but don't overwrite system environment variables
	if !config.LoadEnv() {
		log.Println("Warning: No .env file found, falling back to system environment variables.")
	}

	cmd.Execute(context.Background())
}
