package main

import "github.com/fieldtrace/evidence-cli/internal/cli"

func main() {
	cli.Execute()
}
