package command

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"
)

// Log opens the tree described by the working directory's config and
// prints its commit history, newest first.
type Log struct {
	ui cli.Ui
}

func NewLog() (cmd cli.Command, err error) {
	return &Log{
		ui: &cli.BasicUi{
			Reader:      os.Stdin,
			Writer:      os.Stderr,
			ErrorWriter: os.Stderr,
		},
	}, nil
}

func (cmd *Log) Help() string {
	return fmt.Sprintf("\n  %s\n\n%s\n", cmd.Synopsis(), "infinitree log")
}

func (cmd *Log) Synopsis() string {
	return "list commits, newest first"
}

func (cmd *Log) Run(args []string) int {
	cfg, err := LoadConfig("")
	if err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to load config: %v", err))
		return 1
	}

	t, err := OpenTree(cfg)
	if err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to open tree: %v", err))
		return 2
	}

	for _, c := range t.Commits() { // already newest first
		cmd.ui.Output(fmt.Sprintf("%s  %s  %s",
			c.ID.String()[:12],
			c.Metadata.Time.Format("2006-01-02T15:04:05Z07:00"),
			c.Metadata.Message,
		))
	}

	return 0
}
