package main

import (
	"log"

	"github.com/sorarelay/sorarelay/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ sorarelay failed to start: %v", err)
	}
}
