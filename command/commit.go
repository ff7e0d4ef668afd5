package command

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/mitchellh/cli"

	"github.com/symmetree-labs/infinitree/tree"
)

var CommitOpts struct {
	Message string `short:"m" long:"message" description:"Commit message" required:"true"`
	Always  bool   `long:"always" description:"Record the commit even if no field changed"`
}

// Commit opens the tree described by the working directory's config and
// records a new generation. It carries no application index fields of
// its own, so an invocation only ever produces a message-only
// checkpoint -- wiring real field data through this command is left to
// whatever program embeds the tree package directly.
type Commit struct {
	ui cli.Ui
}

func NewCommit() (cmd cli.Command, err error) {
	return &Commit{
		ui: &cli.BasicUi{
			Reader:      os.Stdin,
			Writer:      os.Stderr,
			ErrorWriter: os.Stderr,
		},
	}, nil
}

func (cmd *Commit) Help() string {
	parser := flags.NewNamedParser(cmd.Usage(), flags.PassDoubleDash)
	if _, err := parser.AddGroup("default", "", &CommitOpts); err != nil {
		panic(err)
	}
	buf := bytes.NewBuffer(nil)
	parser.WriteHelp(buf)
	return fmt.Sprintf("\n  %s\n\n%s\n", cmd.Synopsis(), buf.String())
}

func (cmd *Commit) Synopsis() string {
	return "record a new commit against the current tree"
}

func (cmd *Commit) Usage() string {
	return "infinitree commit -m MESSAGE [--always]"
}

func (cmd *Commit) Run(args []string) int {
	if _, err := flags.ParseArgs(&CommitOpts, args); err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to parse flags: %v", err))
		return 1
	}

	cfg, err := LoadConfig("")
	if err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to load config: %v", err))
		return 2
	}

	t, err := OpenTree(cfg)
	if err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to open tree: %v", err))
		return 3
	}

	mode := tree.OnlyOnChange
	if CommitOpts.Always {
		mode = tree.Always
	}

	if err := t.CommitWithCustomData(CommitOpts.Message, mode, nil); err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to commit: %v", err))
		return 4
	}

	cmd.ui.Output("committed")
	return 0
}
