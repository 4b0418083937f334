// Package main provides the entrypoint for pro-checkin-webhook.
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/isometry/pro-checkin-webhook/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		os.Exit(1)
	}
}
