package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"

	"github.com/symmetree-labs/infinitree/command"
)

var (
	name    = "infinitree"
	version = "0.0.0"
)

func main() {
	c := cli.NewCLI(name, version)
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"init":       command.NewInit,
		"commit":     command.NewCommit,
		"log":        command.NewLog,
		"cat":        command.NewCat,
		"gc-objects": command.NewGCObjects,
	}

	status, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s", name, err)
	}

	os.Exit(status)
}
