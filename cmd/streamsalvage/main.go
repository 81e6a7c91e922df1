package main

import (
	"log"

	"streamsalvage/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ streamsalvage failed to start: %v", err)
	}
}
