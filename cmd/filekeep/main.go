// Command filekeep serves the file storage API.
package main

import (
	"context"
	"log"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/app"
)

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
