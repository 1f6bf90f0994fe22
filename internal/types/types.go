package types

// NodeKind discriminates the two node shapes of an archive tree.
type NodeKind int

const (
	NodeDirectory NodeKind = iota
	NodeFile
)

func (k NodeKind) String() string {
	switch k {
	case NodeDirectory:
		return "Directory"
	case NodeFile:
		return "File"
	default:
		return "Unknown"
	}
}

// Node is a directory or a file of an archive tree. Directories carry
// Children in on-disk order; files carry the byte range of their contents
// in the payload file.
type Node struct {
	Kind     NodeKind
	Name     string
	Children []*Node

	Offset   uint64 // payload offset, files only
	Size     uint64 // payload size, files only
	FullSize uint64 // uncompressed size hint, files only
	Checksum [32]byte
}

// NewDirectory returns a directory node.
func NewDirectory(name string, children ...*Node) *Node {
	return &Node{Kind: NodeDirectory, Name: name, Children: children}
}

// NewFile returns a file node covering payload[offset:offset+size].
func NewFile(name string, offset, size uint64) *Node {
	return &Node{Kind: NodeFile, Name: name, Offset: offset, Size: size}
}

// IsDir reports whether n is a directory.
func (n *Node) IsDir() bool { return n.Kind == NodeDirectory }

// Walk calls fn for n and every descendant in preorder, passing the path of
// each node relative to n (n itself has an empty path). Returning false from
// fn skips the node's children.
func (n *Node) Walk(fn func(path string, node *Node) bool) {
	n.walk("", fn)
}

func (n *Node) walk(path string, fn func(string, *Node) bool) {
	if !fn(path, n) {
		return
	}
	for _, c := range n.Children {
		p := c.Name
		if path != "" {
			p = path + "/" + c.Name
		}
		c.walk(p, fn)
	}
}

// CountFiles returns the number of file nodes under n.
func (n *Node) CountFiles() int {
	count := 0
	n.Walk(func(_ string, node *Node) bool {
		if node.Kind == NodeFile {
			count++
		}
		return true
	})
	return count
}
