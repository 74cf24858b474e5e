package main

import (
	"remit-rates/internal/cli"
)

func main() {
	cli.Execute()
}
