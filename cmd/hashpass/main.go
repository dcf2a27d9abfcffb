package main

import (
	"log"
	"os"

	"github.com/dmitrijs2005/financa/internal/hashpass"
)

func main() {
	if err := hashpass.Run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatalf("hashpass: %v", err)
	}
}
