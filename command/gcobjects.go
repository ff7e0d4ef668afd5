package command

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/mitchellh/cli"

	"github.com/symmetree-labs/infinitree/backend"
)

var GCObjectsOpts struct {
	Delete bool `long:"delete" description:"Delete orphaned objects instead of just listing them"`
}

// GCObjects opens the tree described by the working directory's config,
// computes the set of objects its full commit history still depends on,
// and reports every object the backend holds that isn't in that set.
type GCObjects struct {
	ui cli.Ui
}

func NewGCObjects() (cmd cli.Command, err error) {
	return &GCObjects{
		ui: &cli.BasicUi{
			Reader:      os.Stdin,
			Writer:      os.Stderr,
			ErrorWriter: os.Stderr,
		},
	}, nil
}

func (cmd *GCObjects) Help() string {
	parser := flags.NewNamedParser(cmd.Usage(), flags.PassDoubleDash)
	if _, err := parser.AddGroup("default", "", &GCObjectsOpts); err != nil {
		panic(err)
	}
	buf := bytes.NewBuffer(nil)
	parser.WriteHelp(buf)
	return fmt.Sprintf("\n  %s\n\n%s\n", cmd.Synopsis(), buf.String())
}

func (cmd *GCObjects) Synopsis() string {
	return "find (and optionally delete) objects no commit references"
}

func (cmd *GCObjects) Usage() string {
	return "infinitree gc-objects [--delete]"
}

func (cmd *GCObjects) Run(args []string) int {
	if _, err := flags.ParseArgs(&GCObjectsOpts, args); err != nil {
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

	live, err := t.LiveObjectIDs()
	if err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to compute live object set: %v", err))
		return 4
	}

	dir, ok := t.Backend().(*backend.Directory)
	if !ok {
		cmd.ui.Error("gc-objects only supports the directory backend (no enumeration method on this backend)")
		return 5
	}

	ids, err := dir.ListIDs()
	if err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to list backend objects: %v", err))
		return 6
	}

	var orphans int
	for _, id := range ids {
		if _, ok := live[id]; ok {
			continue
		}
		orphans++
		if GCObjectsOpts.Delete {
			if err := dir.Delete(id); err != nil {
				cmd.ui.Error(fmt.Sprintf("failed to delete %s: %v", id.String(), err))
				return 7
			}
			cmd.ui.Output(fmt.Sprintf("deleted %s", id.String()))
		} else {
			cmd.ui.Output(id.String())
		}
	}

	cmd.ui.Output(fmt.Sprintf("%d orphaned object(s) found out of %d total", orphans, len(ids)))
	return 0
}
