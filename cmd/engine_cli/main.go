package main

import "github.com/SscSPs/fleet_finance_engine/internal/cli"

func main() {
	cli.Execute()
}
