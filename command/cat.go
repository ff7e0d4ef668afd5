package command

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"

	"github.com/symmetree-labs/infinitree/object"
)

// Cat writes one object's raw, still-encrypted bytes to stdout, for
// inspecting the on-disk layout directly. It deliberately bypasses
// decryption: the CLI carries no application index fields to resolve a
// chunk pointer against, so this only ever dumps whatever backend.
// ReadObject returns for the given hex id.
type Cat struct {
	ui cli.Ui
}

func NewCat() (cmd cli.Command, err error) {
	return &Cat{
		ui: &cli.BasicUi{
			Reader:      os.Stdin,
			Writer:      os.Stderr,
			ErrorWriter: os.Stderr,
		},
	}, nil
}

func (cmd *Cat) Help() string {
	return fmt.Sprintf("\n  %s\n\n%s\n", cmd.Synopsis(), cmd.Usage())
}

func (cmd *Cat) Synopsis() string {
	return "dump an object's raw bytes by hex id"
}

func (cmd *Cat) Usage() string {
	return "infinitree cat OBJECT_ID"
}

func (cmd *Cat) Run(args []string) int {
	if len(args) != 1 {
		cmd.ui.Error(fmt.Sprintf("expected exactly 1 argument (object id), got %d", len(args)))
		return 1
	}

	id, err := object.ParseID(args[0])
	if err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to parse object id: %v", err))
		return 2
	}

	cfg, err := LoadConfig("")
	if err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to load config: %v", err))
		return 3
	}

	be, err := cfg.OpenBackend()
	if err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to open backend: %v", err))
		return 4
	}

	obj, err := be.ReadObject(id)
	if err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to read object: %v", err))
		return 5
	}

	if _, err := os.Stdout.Write(obj.Bytes()); err != nil {
		cmd.ui.Error(fmt.Sprintf("failed to write to stdout: %v", err))
		return 6
	}

	return 0
}
