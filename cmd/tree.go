package cmd

import (
	"encoding/json"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/backstage/services/herdadmin/internal/familytree"
)

var treeRaw bool

var treeCmd = &cobra.Command{
	Use:   "tree [file]",
	Short: "Convert a family tree file into the display layout",
	Long: `Read a family tree JSON file (defaults to tree.path) and print the
display layout as JSON. --raw dumps the converted Go value instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().BoolVar(&treeRaw, "raw", false, "dump the converted tree with go-spew")
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Tree.Path
	}
	if path == "" {
		return errors.New("no family tree file given and tree.path is not set")
	}

	root, err := familytree.LoadFile(path)
	if err != nil {
		return err
	}
	out := familytree.Convert(root)

	log.Debug().
		Int("nodes", familytree.Size(out)).
		Int("depth", familytree.Depth(out)).
		Msg("Family tree converted")

	if treeRaw {
		spew.Fdump(cmd.OutOrStdout(), out)
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return errors.Wrap(err, "failed to encode tree")
	}
	return nil
}
