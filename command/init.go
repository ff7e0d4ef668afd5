package command

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/mitchellh/cli"

	"github.com/symmetree-labs/infinitree/tree"
)

var InitOpts struct {
	Username string `short:"u" long:"username" description:"Username credential for the tree's header key" required:"true"`
	Password string `short:"p" long:"password" description:"Password credential for the tree's header key" required:"true"`
	Backend  string `long:"backend" description:"Backend to store objects in (directory, s3)" default:"directory"`
}

// Init creates a new, empty tree under the backend described by the
// working directory's config (or flags/environment, for the fields
// LoadConfig doesn't find on disk yet), and records its header
// credentials into .infinitree.json.
type Init struct {
	ui cli.Ui
}

func NewInit() (cmd cli.Command, err error) {
	return &Init{
		ui: &cli.BasicUi{
			Reader:      os.Stdin,
			Writer:      os.Stderr,
			ErrorWriter: os.Stderr,
		},
	}, nil
}

func (cmd *Init) Help() string {
	parser := flags.NewNamedParser(cmd.Usage(), flags.PassDoubleDash)
	if _, err := parser.AddGroup("default", "", &InitOpts); err != nil {
		panic(err)
	}
	buf := bytes.NewBuffer(nil)
	parser.WriteHelp(buf)
	return fmt.Sprintf("\n  %s\n\n%s\n", cmd.Synopsis(), buf.String())
}

func (cmd *Init) Synopsis() string {
	return "initialize a new tree and write its config"
}

func (cmd *Init) Usage() string {
	return "infinitree init -u USERNAME -p PASSWORD"
}

func (cmd *Init) Run(args []string) int {
	if _, err := flags.ParseArgs(&InitOpts, args); err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to parse flags: %v", err))
		return 1
	}

	cfg, err := LoadConfig("")
	if err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to load config: %v", err))
		return 2
	}
	cfg.Username = InitOpts.Username
	cfg.Password = InitOpts.Password
	if InitOpts.Backend != "" {
		cfg.Backend = InitOpts.Backend
	}

	t, err := CreateTree(cfg)
	if err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to create tree: %v", err))
		return 3
	}

	// An Always commit with no fields records a genesis generation, so
	// `log` immediately has something to show and the root object
	// actually exists on disk before any real commit happens.
	if err := t.CommitWithCustomData("genesis", tree.Always, nil); err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to write genesis commit: %v", err))
		return 4
	}

	if err := cfg.Save(); err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to save config: %v", err))
		return 5
	}

	cmd.ui.Output(fmt.Sprintf("initialized tree at %s", cfg.Directory))
	return 0
}
