package main

import (
	"github.com/joho/godotenv"

	"github.com/pfrederiksen/city-events/internal/cli"
)

var version = "dev"

func main() {
	// A .env file is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cli.Version = version
	cli.Execute()
}
