package main

import (
	"os"

	"recorder-notifier/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		os.Exit(1)
	}
}
