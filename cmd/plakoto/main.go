package main

import "github.com/mcoot/plakoto/internal/cli"

func main() {
	cli.Execute()
}
