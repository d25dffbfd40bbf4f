package command

import (
	"fmt"
	"sort"

	"github.com/mrkirby153/todoist-bot/internal/protocol"
)

// Leaf is a registered command: its handler, option schema, and description.
type Leaf struct {
	Path        Path
	Description string
	Options     []protocol.CommandOption
	Handler     Handler
}

// node is either a branch (children != nil) or a leaf (leaf != nil).
type node struct {
	leaf        *Leaf
	children    map[string]*node
	description string
}

func newBranch() *node {
	return &node{children: make(map[string]*node)}
}

func (n *node) isLeaf() bool {
	return n.leaf != nil
}

// Registry holds slash commands in a tree and message commands by name.
// It is populated at startup and read-only afterwards.
type Registry struct {
	root     *node
	messages map[string]MessageHandlerFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		root:     newBranch(),
		messages: make(map[string]MessageHandlerFunc),
	}
}

// Register inserts a typed handler at path. It panics on an invalid path or
// when the path collides with an existing registration.
func Register[C any](r *Registry, path string, description string, schema Schema[C], fn HandlerFunc[C]) {
	p := MustParsePath(path)
	r.Add(p, description, schema.Options(), &typedHandler[C]{path: p, schema: schema, fn: fn})
}

// Add inserts a leaf at path, creating intermediate branches.
// Re-registering a leaf, inserting beneath a leaf, or turning an existing
// branch into a leaf panics.
func (r *Registry) Add(path Path, description string, options []protocol.CommandOption, h Handler) {
	if err := path.Validate(); err != nil {
		panic(err)
	}
	if h == nil {
		panic(fmt.Sprintf("command %q: nil handler", path))
	}

	cur := r.root
	for i, seg := range path {
		if cur.isLeaf() {
			panic(fmt.Sprintf("command %q: cannot insert beneath leaf %q", path, path[:i]))
		}
		child, exists := cur.children[seg]
		if i == len(path)-1 {
			if exists {
				if child.isLeaf() {
					panic(fmt.Sprintf("command %q: already registered", path))
				}
				panic(fmt.Sprintf("command %q: path is a command group", path))
			}
			cur.children[seg] = &node{leaf: &Leaf{
				Path:        append(Path(nil), path...),
				Description: description,
				Options:     options,
				Handler:     h,
			}}
			return
		}
		if !exists {
			child = newBranch()
			cur.children[seg] = child
		}
		cur = child
	}
}

// DescribeGroup sets the description of a branch, creating it if needed.
// Branches without one are exported with a placeholder.
func (r *Registry) DescribeGroup(path string, description string) {
	p := MustParsePath(path)
	if len(p) == MaxDepth {
		panic(fmt.Sprintf("command group %q: too deep", p))
	}

	cur := r.root
	for _, seg := range p {
		child, exists := cur.children[seg]
		if !exists {
			child = newBranch()
			cur.children[seg] = child
		}
		if child.isLeaf() {
			panic(fmt.Sprintf("command group %q: %q is a command", p, seg))
		}
		cur = child
	}
	cur.description = description
}

// RegisterMessage registers a message context-menu command by display name.
func (r *Registry) RegisterMessage(name string, fn MessageHandlerFunc) {
	if name == "" {
		panic("message command: empty name")
	}
	if fn == nil {
		panic(fmt.Sprintf("message command %q: nil handler", name))
	}
	if _, exists := r.messages[name]; exists {
		panic(fmt.Sprintf("message command %q: already registered", name))
	}
	r.messages[name] = fn
}

// Resolve walks path exactly. It returns false when a segment is missing or
// the path ends on a branch.
func (r *Registry) Resolve(path Path) (*Leaf, bool) {
	if path.Validate() != nil {
		return nil, false
	}

	cur := r.root
	for _, seg := range path {
		if cur.isLeaf() {
			return nil, false
		}
		child, ok := cur.children[seg]
		if !ok {
			return nil, false
		}
		cur = child
	}
	if !cur.isLeaf() {
		return nil, false
	}
	return cur.leaf, true
}

// Message returns the message command registered under name.
func (r *Registry) Message(name string) (MessageHandlerFunc, bool) {
	fn, ok := r.messages[name]
	return fn, ok
}

// Paths lists every registered slash-command path in lexical order.
func (r *Registry) Paths() []Path {
	var out []Path
	var walk func(n *node, prefix Path)
	walk = func(n *node, prefix Path) {
		if n.isLeaf() {
			out = append(out, n.leaf.Path)
			return
		}
		for _, name := range sortedKeys(n.children) {
			walk(n.children[name], append(append(Path(nil), prefix...), name))
		}
	}
	walk(r.root, nil)
	return out
}

// MessageCommands lists registered message command names in lexical order.
func (r *Registry) MessageCommands() []string {
	names := make([]string, 0, len(r.messages))
	for name := range r.messages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]*node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
