package main

import "github.com/NVIDIA/gitops-portal/pkg/cli"

func main() {
	cli.Execute()
}
