package patch

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/udisondev/portalgo/internal/keyvalues"
	"github.com/udisondev/portalgo/internal/world"
)

// ErrNoPatch is returned by Validate when the map has no patch file.
var ErrNoPatch = errors.New("no patch file")

// Problem is one issue found in a patch file.
type Problem struct {
	Line    int
	Type    string
	Message string
}

func (p Problem) String() string {
	if p.Type == "" {
		return fmt.Sprintf("line %d: %s", p.Line, p.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", p.Line, p.Type, p.Message)
}

// Validation is the result of checking one patch file offline.
type Validation struct {
	Path        string
	Fingerprint string
	Entities    int
	Problems    []Problem
	// Notes are oddities the loader accepts, such as an entity written
	// as a plain value. They do not make the file fail.
	Notes []Problem
}

// OK reports whether the file would apply cleanly.
func (v Validation) OK() bool { return len(v.Problems) == 0 }

// Validate checks the patch file of mapName without a running level.
// Classes are looked up in f.
func Validate(fsys fs.FS, mapName string, f *world.Factory) (Validation, error) {
	v := Validation{Path: Path(mapName)}

	data, err := fs.ReadFile(fsys, v.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return v, fmt.Errorf("%s: %w", v.Path, ErrNoPatch)
		}
		return v, fmt.Errorf("reading %s: %w", v.Path, err)
	}
	v.Fingerprint = Fingerprint(data)

	root, err := keyvalues.ParseBytes(data)
	if err != nil {
		return v, fmt.Errorf("parsing %s: %w", v.Path, err)
	}
	file := root.FirstBlock()
	if file == nil {
		v.Problems = append(v.Problems, Problem{Message: "no root block"})
		return v, nil
	}

	for _, block := range file.Children {
		v.Entities++
		typ := block.Name
		if cn := block.FindKey("classname"); cn != nil {
			typ = cn.Value
		}
		if !f.Has(typ) {
			v.Problems = append(v.Problems, Problem{Line: block.Line(), Type: typ, Message: "unknown entity class"})
		}
		if !block.IsBlock() {
			v.Notes = append(v.Notes, Problem{Line: block.Line(), Type: typ, Message: "entity is not a block, spawned without properties"})
			continue
		}
		checkValues(block, typ, &v)
	}
	return v, nil
}

func checkValues(block *keyvalues.Node, typ string, v *Validation) {
	for _, kv := range block.Children {
		if kv.Name == connectionsBlock {
			checkValues(kv, typ, v)
			continue
		}
		if kv.IsBlock() {
			msg := fmt.Sprintf("nested block %q is ignored", kv.Name)
			if strings.EqualFold(kv.Name, connectionsBlock) {
				msg = fmt.Sprintf("%q must be lowercase to be read as outputs", kv.Name)
			}
			v.Problems = append(v.Problems, Problem{Line: kv.Line(), Type: typ, Message: msg})
			continue
		}
		if len(kv.Value) >= MaxValueLength {
			v.Problems = append(v.Problems, Problem{
				Line:    kv.Line(),
				Type:    typ,
				Message: fmt.Sprintf("value of %q is %d bytes, limit %d", kv.Name, len(kv.Value), MaxValueLength-1),
			})
		}
	}
}
