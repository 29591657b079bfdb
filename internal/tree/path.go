// internal/tree/path.go
package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/filtertree/internal/types"
)

/*
 * Structural paths.
 *
 * A Path is the ordered list of child indices leading from the root
 * sequence to a node: "0" is the first root-level node, "0.1" the second
 * child of that node's group. The empty path names the root sequence itself
 * and is only meaningful as an insertion point.
 *
 * Host-facing APIs exchange the dotted string form. It is parsed once per
 * logical operation and the parsed value is threaded through every helper,
 * so no internal call re-splits strings.
 */

// PathSeparator joins path indices in the serialized form.
const PathSeparator = "."

// Path addresses a node by child indices, outermost first.
type Path []int

// ParsePath converts "0.1.2" into Path{0, 1, 2}. The empty string parses to
// the empty path. Segments must be non-empty runs of ASCII digits.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}

	segments := strings.Split(s, PathSeparator)
	if len(segments) > types.MaxPathLength {
		return nil, fmt.Errorf("parse path %q: %w", s, types.ErrPathTooDeep)
	}

	p := make(Path, len(segments))
	for i, seg := range segments {
		if !isDigits(seg) {
			return nil, fmt.Errorf("parse path %q: segment %d: %w", s, i, types.ErrInvalidPath)
		}
		n, err := strconv.Atoi(seg)
		if err != nil {
			// overflow
			return nil, fmt.Errorf("parse path %q: segment %d: %w", s, i, types.ErrInvalidPath)
		}
		p[i] = n
	}
	return p, nil
}

// MustParsePath is ParsePath for literals; it panics on malformed input.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String serializes the path in dotted form.
func (p Path) String() string {
	var b strings.Builder
	for i, idx := range p {
		if i > 0 {
			b.WriteString(PathSeparator)
		}
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}

// Depth is the number of indices in the path.
func (p Path) Depth() int { return len(p) }

// IsRoot reports whether p names the root sequence.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Parent returns the path of the sequence owning p. The parent of a
// root-level path is the empty path.
func (p Path) Parent() Path {
	if len(p) <= 1 {
		return Path{}
	}
	return p[:len(p)-1].Clone()
}

// Last returns the trailing index, or -1 for the empty path.
func (p Path) Last() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// Child returns a new path addressing child i of the node at p.
func (p Path) Child(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, i)
}

// HasPrefix reports whether q is a prefix of p (every path has the empty prefix).
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Equal reports whether p and q address the same position.
func (p Path) Equal(q Path) bool {
	return len(p) == len(q) && p.HasPrefix(q)
}

// Clone returns a copy that does not alias p.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}
