package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solatis/filtertree/internal/editor"
	"github.com/solatis/filtertree/internal/match"
	"github.com/solatis/filtertree/internal/tree"
	"github.com/solatis/filtertree/internal/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a tree's rendering, per-node controls and an optional preview",
	Args:  cobra.NoArgs,
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().String("tree", "-", "tree file, - for stdin")
	inspectCmd.Flags().String("documents", "", "JSON lines file of sample documents to preview")
	inspectCmd.Flags().String("find", "", "print the path of the filter with this ID")
	inspectCmd.Flags().String("hover", "", "print the drop target a drag hovering this path lands on")
}

func runInspect(cmd *cobra.Command, args []string) error {
	treePath, _ := cmd.Flags().GetString("tree")
	docsPath, _ := cmd.Flags().GetString("documents")
	findID, _ := cmd.Flags().GetString("find")
	hover, _ := cmd.Flags().GetString("hover")

	cfg, err := loadConfig()
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

	ed := editor.New(t, 0, editor.Options{Policy: cfg.Editor.Policy(), MaxLeaves: cfg.Server.MaxLeaves})
	defer ed.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tree:    %s\n", t)
	fmt.Fprintf(out, "leaves:  %d\n", tree.CountLeaves(t))
	fmt.Fprintf(out, "height:  %d\n", tree.Height(t))
	if findID != "" {
		p, ok := tree.FindFilter(t, types.FilterID(findID))
		if !ok {
			return fmt.Errorf("filter %s: %w", findID, types.ErrPathNotFound)
		}
		fmt.Fprintf(out, "found:   %s\n", p)
	}
	if hover != "" {
		p, err := ed.DropTarget(hover)
		if err != nil {
			return fmt.Errorf("hover %s: %w", hover, err)
		}
		fmt.Fprintf(out, "drop:    %s\n", p)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tNODE\tDEPTH\tIN\tOR\tAND\tREMOVABLE")
	for _, a := range ed.Affordances() {
		n, err := tree.Resolve(t, a.Path)
		if err != nil {
			return err
		}
		label := n.String()
		if a.IsGroup {
			label = n.(*tree.Group).Condition.String() + " group"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			a.Path, label, a.Depth, a.Condition, yesNo(a.OrAllowed), yesNo(a.AndAllowed), yesNo(a.Removable))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if docsPath == "" {
		return nil
	}
	docs, err := readDocuments(docsPath)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	results, err := match.NewEngine(logger).Preview(context.Background(), t, docs)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DOC\tMATCHED\tPATH\tFIELD")
	for i, r := range results {
		path, field := "-", "-"
		if r.MatchedPath != nil {
			path = r.MatchedPath.String()
		}
		if r.MatchedField != "" {
			field = r.MatchedField
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, yesNo(r.Matched), path, field)
	}
	return w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
