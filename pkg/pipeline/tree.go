// File: pkg/pipeline/tree.go
package pipeline

import (
	"sort"
	"strings"

	"github.com/CMClay/metalsmith-concat/pkg/filemap"
)

type treeNode struct {
	name     string
	isDir    bool
	children map[string]*treeNode
}

func (n *treeNode) child(name string, isDir bool) *treeNode {
	if n.children == nil {
		n.children = make(map[string]*treeNode)
	}
	c, ok := n.children[name]
	if !ok {
		c = &treeNode{name: name}
		n.children[name] = c
	}
	c.isDir = c.isDir || isDir
	return c
}

// Tree renders the paths of files as a directory tree below a root line
// labelled root. Directories come first, then files, each sorted
// alphabetically ignoring case.
func Tree(root string, files *filemap.FileMap) string {
	top := &treeNode{name: root, isDir: true}
	for _, key := range files.Keys() {
		parts := strings.Split(key, "/")
		node := top
		for i, part := range parts {
			node = node.child(part, i < len(parts)-1)
		}
	}

	var b strings.Builder
	b.WriteString(root + "/\n")
	writeTree(&b, top, "")
	return b.String()
}

func writeTree(b *strings.Builder, node *treeNode, prefix string) {
	entries := make([]*treeNode, 0, len(node.children))
	for _, c := range node.children {
		entries = append(entries, c)
	}
	// Sort entries: directories first, then files, alphabetically.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].isDir != entries[j].isDir {
			return entries[i].isDir
		}
		return strings.ToLower(entries[i].name) < strings.ToLower(entries[j].name)
	})

	for i, entry := range entries {
		connector := "├── "
		extension := "│   "
		if i == len(entries)-1 {
			connector = "└── "
			extension = "    "
		}

		b.WriteString(prefix + connector + entry.name)
		if entry.isDir {
			b.WriteString("/\n")
			writeTree(b, entry, prefix+extension)
			continue
		}
		b.WriteString("\n")
	}
}
