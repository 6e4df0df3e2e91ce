// Package filetree models a project workspace as a path-keyed tree in the
// WebContainer mount format: {"index.js": {"file": {"contents": "..."}},
// "src": {"directory": {...}}}.
//
// Trees are treated as values. Every mutation returns a fresh copy so a tree
// handed out to readers is never changed underneath them. There is no merge
// of concurrent edits: the last write of a path wins.
package filetree

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidPath = errors.New("invalid file path")
	ErrInvalidNode = errors.New("invalid file tree node")
)

type FileContents struct {
	Contents string `json:"contents"`
}

// Node is either a file or a directory, never both.
type Node struct {
	File      *FileContents `json:"file,omitempty"`
	Directory Tree          `json:"directory,omitempty"`
}

type Tree map[string]*Node

func NewFile(contents string) *Node {
	return &Node{File: &FileContents{Contents: contents}}
}

func NewDirectory(children Tree) *Node {
	if children == nil {
		children = Tree{}
	}
	return &Node{Directory: children}
}

func (n *Node) IsDir() bool {
	return n != nil && n.File == nil && n.Directory != nil
}

// UnmarshalJSON accepts the mount format plus two shorthands seen from clients
// and models: a bare string leaf and a {"contents": "..."} leaf.
func (n *Node) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*n = Node{File: &FileContents{Contents: text}}
		return nil
	}

	var raw struct {
		File      *FileContents `json:"file"`
		Directory Tree          `json:"directory"`
		Contents  *string       `json:"contents"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}

	switch {
	case raw.File != nil && raw.Directory != nil:
		return fmt.Errorf("%w: node is both file and directory", ErrInvalidNode)
	case raw.File != nil:
		*n = Node{File: raw.File}
	case raw.Directory != nil:
		*n = Node{Directory: raw.Directory}
	case raw.Contents != nil:
		*n = Node{File: &FileContents{Contents: *raw.Contents}}
	default:
		return fmt.Errorf("%w: node has neither file nor directory", ErrInvalidNode)
	}
	return nil
}

func (n *Node) MarshalJSON() ([]byte, error) {
	if n.File != nil {
		return json.Marshal(struct {
			File *FileContents `json:"file"`
		}{n.File})
	}
	dir := n.Directory
	if dir == nil {
		dir = Tree{}
	}
	return json.Marshal(struct {
		Directory Tree `json:"directory"`
	}{dir})
}

func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}
	if n.File != nil {
		return NewFile(n.File.Contents)
	}
	return NewDirectory(n.Directory.Clone())
}

// Parse decodes a JSON document into a Tree. An empty document yields an empty tree.
func Parse(data []byte) (Tree, error) {
	if len(data) == 0 || string(data) == "null" {
		return Tree{}, nil
	}
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if t == nil {
		t = Tree{}
	}
	return t, nil
}

// Clone returns a deep copy.
func (t Tree) Clone() Tree {
	out := make(Tree, len(t))
	for name, node := range t {
		out[name] = node.clone()
	}
	return out
}

// Merge overlays incoming on a copy of t. Top-level entries present in
// incoming replace the current ones wholesale; entries it does not mention
// are left untouched.
func (t Tree) Merge(incoming Tree) Tree {
	out := t.Clone()
	for name, node := range incoming {
		if node == nil {
			continue
		}
		out[name] = node.clone()
	}
	return out
}

// WithFile returns a copy of t with the file at path set to contents.
// Intermediate directories are created; a file standing where a directory is
// needed is replaced.
func (t Tree) WithFile(path, contents string) (Tree, error) {
	segments, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	dir := out
	for _, seg := range segments[:len(segments)-1] {
		next, ok := dir[seg]
		if !ok || !next.IsDir() {
			next = NewDirectory(nil)
			dir[seg] = next
		}
		dir = next.Directory
	}
	dir[segments[len(segments)-1]] = NewFile(contents)
	return out, nil
}

// Lookup finds the node at path.
func (t Tree) Lookup(path string) (*Node, bool) {
	segments, err := SplitPath(path)
	if err != nil {
		return nil, false
	}

	dir := t
	for i, seg := range segments {
		node, ok := dir[seg]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return node, true
		}
		if !node.IsDir() {
			return nil, false
		}
		dir = node.Directory
	}
	return nil, false
}

// Paths lists every file path in lexical order.
func (t Tree) Paths() []string {
	var paths []string
	t.walk("", func(path string, _ *Node) {
		paths = append(paths, path)
	})
	sort.Strings(paths)
	return paths
}

func (t Tree) walk(prefix string, fn func(path string, node *Node)) {
	for name, node := range t {
		if node == nil {
			continue
		}
		full := name
		if prefix != "" {
			full = prefix + "/" + name
		}
		if node.IsDir() {
			node.Directory.walk(full, fn)
			continue
		}
		fn(full, node)
	}
}

// Marshal encodes the tree, always producing an object.
func (t Tree) Marshal() ([]byte, error) {
	if t == nil {
		t = Tree{}
	}
	return json.Marshal(t)
}

// SplitPath validates a slash separated path and returns its segments.
func SplitPath(path string) ([]string, error) {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	segments := strings.Split(trimmed, "/")
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return segments, nil
}
