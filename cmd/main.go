package main

import (
	"log"
	"os"

	"quizhub-server/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Printf("quizhub: %v", err)
		os.Exit(1)
	}
}
