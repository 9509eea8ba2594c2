package main

import "github.com/mcoot/rpsduel/internal/cli"

func main() {
	cli.Execute()
}
