package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/filtertree/internal/editor"
	"github.com/solatis/filtertree/internal/types"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply edits to a tree offline and print the result",
	Long: `Reads a tree (JSON, or YAML by file extension) and applies either the
actions listed in --actions or the single action described by --op and its
flags. The editor's depth policy comes from the config file.`,
	Example: `  filtertree apply --tree tree.json --op add --path 0 --condition or \
    --filter '{"field":"status","operator":"is","value":"open"}'
  filtertree apply --tree tree.yaml --actions edits.yaml --format yaml`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
	f := applyCmd.Flags()
	f.String("tree", "-", "tree file, - for stdin")
	f.String("actions", "", "file with a list of actions (YAML or JSON)")
	f.String("op", "", "single action kind: add, remove, move, update")
	f.String("path", "", "target path for add, remove and update")
	f.String("from", "", "source path for move")
	f.String("to", "", "destination path for move")
	f.String("condition", "and", "condition for add and move (and, or)")
	f.String("filter", "", "filter for add and update (JSON or YAML)")
	f.String("format", "json", "output format (json, yaml, text)")
	f.Bool("events", false, "write one JSON line per applied edit to stderr")
}

func actionFromFlags(cmd *cobra.Command) (editor.Action, error) {
	f := cmd.Flags()
	op, _ := f.GetString("op")
	path, _ := f.GetString("path")
	from, _ := f.GetString("from")
	to, _ := f.GetString("to")
	condFlag, _ := f.GetString("condition")
	filterFlag, _ := f.GetString("filter")

	cond, err := types.ParseCondition(condFlag)
	if err != nil {
		return editor.Action{}, err
	}
	a := editor.Action{Kind: editor.ActionKind(op), Path: path, From: from, To: to, Condition: cond}
	if filterFlag != "" {
		a.Filter, err = decodeFilter(filterFlag)
		if err != nil {
			return editor.Action{}, err
		}
	}
	return a, nil
}

func runApply(cmd *cobra.Command, args []string) error {
	treePath, _ := cmd.Flags().GetString("tree")
	actionsPath, _ := cmd.Flags().GetString("actions")
	op, _ := cmd.Flags().GetString("op")
	format, _ := cmd.Flags().GetString("format")
	showEvents, _ := cmd.Flags().GetBool("events")

	if (actionsPath == "") == (op == "") {
		return fmt.Errorf("exactly one of --actions or --op is required")
	}
	if (treePath == "" || treePath == "-") && actionsPath == "-" {
		return fmt.Errorf("--tree and --actions cannot both read stdin")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}

	data, err := readInput(cmd, treePath)
	if err != nil {
		return fmt.Errorf("read tree: %w", err)
	}
	t, err := decodeTree(data, treePath)
	if err != nil {
		return err
	}

	var actions []editor.Action
	if actionsPath != "" {
		raw, err := readInput(cmd, actionsPath)
		if err != nil {
			return fmt.Errorf("read actions: %w", err)
		}
		if actions, err = decodeActions(raw); err != nil {
			return err
		}
	} else {
		a, err := actionFromFlags(cmd)
		if err != nil {
			return err
		}
		actions = []editor.Action{a}
	}

	ed := editor.New(t, 0, editor.Options{
		Policy:           cfg.Editor.Policy(),
		MaxLeaves:        cfg.Server.MaxLeaves,
		SubscriberBuffer: cfg.Editor.SubscriberBuffer,
		Logger:           logger,
	})
	defer ed.Close()

	var drained chan struct{}
	if showEvents {
		events := ed.Subscribe(context.Background())
		drained = make(chan struct{})
		go func() {
			defer close(drained)
			enc := json.NewEncoder(cmd.ErrOrStderr())
			for ev := range events {
				_ = enc.Encode(ev)
			}
		}()
	}

	var applyErr error
	for i, a := range actions {
		if _, err := ed.Apply(context.Background(), a); err != nil {
			applyErr = fmt.Errorf("action %d (%s): %w", i, a.Kind, err)
			break
		}
	}

	if drained != nil {
		ed.Close()
		<-drained
		if n := ed.Dropped(); n > 0 {
			logger.Warn("events dropped", zap.Int64("count", n))
		}
	}
	if applyErr != nil {
		return applyErr
	}

	result, _ := ed.Snapshot()
	return writeTree(cmd.OutOrStdout(), result, format)
}
