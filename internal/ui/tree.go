package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/thomas-vilte/svnreview/internal/models"
)

// FileStat is one changed path with its action and, when a diff was loaded, its line counts.
type FileStat struct {
	Path      string
	Action    models.FileAction
	Additions int
	Deletions int
	HasStats  bool
}

// FileStats merges the changed paths of a commit with the per-path diff counts.
// Diff paths are relative to the repository URL while log paths are absolute,
// so they are matched by suffix.
func FileStats(files []models.FileChange, diffs []models.Diff) []FileStat {
	stats := make([]FileStat, 0, len(files))
	for _, f := range files {
		fs := FileStat{Path: f.Path, Action: f.Action}
		for _, d := range diffs {
			if d.Path != "" && strings.HasSuffix(f.Path, "/"+strings.TrimPrefix(d.Path, "/")) {
				fs.Additions, fs.Deletions, fs.HasStats = d.Additions, d.Deletions, true
				break
			}
		}
		stats = append(stats, fs)
	}
	return stats
}

type treeNode struct {
	name     string
	isFile   bool
	stat     *FileStat
	children map[string]*treeNode
}

func buildFileTree(stats []FileStat) *treeNode {
	root := &treeNode{children: make(map[string]*treeNode)}

	for i := range stats {
		parts := strings.Split(strings.Trim(stats[i].Path, "/"), "/")
		current := root

		for j, part := range parts {
			isFile := j == len(parts)-1
			if current.children[part] == nil {
				current.children[part] = &treeNode{
					name:     part,
					isFile:   isFile,
					children: make(map[string]*treeNode),
				}
			}
			if isFile {
				current.children[part].stat = &stats[i]
			}
			current = current.children[part]
		}
	}
	return root
}

// PrintFileTree prints the changed paths as a directory tree.
func PrintFileTree(w io.Writer, header string, stats []FileStat) {
	if len(stats) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\n%s\n", header)
	printTree(w, buildFileTree(stats), "", true)
}

func printTree(w io.Writer, node *treeNode, prefix string, isLast bool) {
	if node.name != "" {
		connector := "├── "
		if isLast {
			connector = "└── "
		}

		name := node.name
		if !node.isFile {
			name = Info.Sprint(name + "/")
		}

		suffix := ""
		if node.stat != nil {
			suffix = " " + actionColor(node.stat.Action).Sprintf("[%s]", node.stat.Action)
			if node.stat.HasStats {
				statsColor := color.New(color.FgGreen)
				if node.stat.Deletions > node.stat.Additions {
					statsColor = color.New(color.FgRed)
				}
				suffix += statsColor.Sprintf(" (+%d, -%d)", node.stat.Additions, node.stat.Deletions)
			}
		}

		_, _ = fmt.Fprintf(w, "%s%s%s%s\n", prefix, connector, name, suffix)
	}

	childPrefix := prefix
	if node.name != "" {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}

	keys := make([]string, 0, len(node.children))
	for key := range node.children {
		keys = append(keys, key)
	}
	sortFileTree(keys, node.children)

	for i, key := range keys {
		printTree(w, node.children[key], childPrefix, i == len(keys)-1)
	}
}

// sortFileTree orders directories first, then files, each alphabetically.
func sortFileTree(keys []string, nodes map[string]*treeNode) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := nodes[keys[i]], nodes[keys[j]]
		if a.isFile != b.isFile {
			return !a.isFile
		}
		return keys[i] < keys[j]
	})
}

func actionColor(a models.FileAction) *color.Color {
	switch a {
	case models.ActionAdded:
		return color.New(color.FgGreen)
	case models.ActionDeleted:
		return color.New(color.FgRed)
	case models.ActionReplaced:
		return color.New(color.FgMagenta)
	default:
		return color.New(color.FgYellow)
	}
}
