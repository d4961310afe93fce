package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL attempts to load configuration overrides from a .opengloss.kdl
// file in projectRoot. Returns (nil, nil) if the file does not exist —
// callers apply Default() in that case, matching the teacher's "no file
// found → nil config, caller uses defaults" contract.
func LoadKDL(projectRoot string) (*Config, error) {
	kdlPath := filepath.Join(projectRoot, ".opengloss.kdl")

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .opengloss.kdl: %w", err)
	}

	return parseKDL(string(content))
}

func parseKDL(content string) (*Config, error) {
	cfg := &Config{}

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "cache":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "substring_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.SubstringSize = v
					}
				case "fuzzy_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.FuzzySize = v
					}
				}
			}
		case "fuzzy":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "weight_word":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Fuzzy.Word = v
					}
				case "weight_definitions":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Fuzzy.Definitions = v
					}
				case "weight_synonyms":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Fuzzy.Synonyms = v
					}
				case "weight_text":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Fuzzy.Text = v
					}
				case "weight_encyclopedia":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Fuzzy.Encyclopedia = v
					}
				case "min_score":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Fuzzy.MinScore = v
					}
				}
			}
		case "graph":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_nodes":
					if v, ok := firstIntArg(cn); ok {
						cfg.Graph.MaxNodes = v
					}
				case "max_edges":
					if v, ok := firstIntArg(cn); ok {
						cfg.Graph.MaxEdges = v
					}
				case "max_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Graph.MaxDepth = v
					}
				}
			}
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
