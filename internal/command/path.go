package command

import (
	"errors"
	"fmt"
	"strings"
)

// MaxDepth is the deepest nesting the wire protocol allows
// (command, subcommand group, subcommand).
const MaxDepth = 3

// ErrInvalidPath is returned for paths that are empty, too deep, or have empty segments.
var ErrInvalidPath = errors.New("invalid command path")

// Path is an ordered command path of 1 to MaxDepth non-empty segments.
type Path []string

// ParsePath splits a space separated path such as "task ai add".
func ParsePath(s string) (Path, error) {
	p := Path(strings.Split(s, " "))
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// MustParsePath is ParsePath for registration tables; it panics on error.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Validate checks the length and segment invariants.
func (p Path) Validate() error {
	if len(p) == 0 || len(p) > MaxDepth {
		return fmt.Errorf("%w: %d segments (want 1-%d)", ErrInvalidPath, len(p), MaxDepth)
	}
	for i, seg := range p {
		if seg == "" {
			return fmt.Errorf("%w: segment %d is empty", ErrInvalidPath, i)
		}
	}
	return nil
}

func (p Path) String() string {
	return strings.Join(p, " ")
}
