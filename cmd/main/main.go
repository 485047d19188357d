package main

import (
	"log"
	"pixellize/internal/pkg/app"
)

func main() {
	err := app.New()
	if err != nil {
		log.Fatal(err)
	}
}
