package main

import (
	"os"

	"github.com/taskdeck/taskdeck/internal/taskdeck"
)

func main() {
	os.Exit(taskdeck.Run(os.Args[1:], os.Stdout, os.Stderr, os.Environ()))
}
