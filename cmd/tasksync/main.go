package main

import (
	"os"

	"github.com/roach88/tasksync/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
