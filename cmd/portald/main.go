package main

import (
	"log"

	"github.com/NVIDIA/gitops-portal/pkg/api"
)

func main() {
	if err := api.Serve(); err != nil {
		log.Fatal(err)
	}
}
