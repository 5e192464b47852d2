// Package main is the entry point for the mine CLI.
package main

import "reportminer.dev/pkg/reportminer/cmd"

func main() {
	cmd.Execute()
}
