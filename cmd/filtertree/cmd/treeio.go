package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/solatis/filtertree/internal/editor"
	"github.com/solatis/filtertree/internal/tree"
	"github.com/solatis/filtertree/internal/types"
)

// readInput reads path, or stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// decodeTree parses a tree in wire form and normalizes it. YAML files are
// recognized by extension; everything else is JSON.
func decodeTree(data []byte, path string) (tree.Tree, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return tree.Tree{}, nil
	}
	if !isYAML(path) {
		return tree.DecodeTree(data)
	}
	var nodes []tree.WireNode
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	t, err := tree.FromWire(nodes)
	if err != nil {
		return nil, err
	}
	return tree.Normalize(t), nil
}

// decodeActions accepts a list of actions or a single action, as YAML or
// JSON.
func decodeActions(data []byte) ([]editor.Action, error) {
	var list []editor.Action
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var single editor.Action
	if err := yaml.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}
	return []editor.Action{single}, nil
}

// decodeFilter parses an inline filter given as JSON or YAML.
func decodeFilter(s string) (*types.Filter, error) {
	var f types.Filter
	if err := yaml.Unmarshal([]byte(s), &f); err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}
	return &f, nil
}

// readDocuments reads one JSON document per non-empty line.
func readDocuments(path string) ([]types.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []types.Document
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), types.MaxDocumentSize+1)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		docs = append(docs, types.Document(append([]byte(nil), line...)))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	return docs, nil
}

// writeTree prints t as json, yaml, or its one-line text rendering.
func writeTree(w io.Writer, t tree.Tree, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree.ToWire(t))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tree.ToWire(t)); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		_, err := fmt.Fprintln(w, t.String())
		return err
	default:
		return fmt.Errorf("unknown output format %q (expected json, yaml or text)", format)
	}
}
