package main

import (
	"os"

	"github.com/dshills/tgreport/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
