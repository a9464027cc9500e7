package keymap

import (
	"github.com/dshills/modalkit/internal/input/mode"
	"github.com/dshills/modalkit/internal/input/vim"
)

// Mode sets of the built-in commands.
const (
	MotionModes   = mode.SetNormal | mode.SetVisual | mode.SetOperatorPending
	ObjectModes   = mode.SetVisual | mode.SetOperatorPending
	OperatorModes = mode.SetNormal | mode.SetVisual
)

// visualOperators are the single-key case operators of Visual mode.
var visualOperators = []struct {
	keys string
	op   *vim.Operator
}{
	{"u", vim.Lowercase},
	{"U", vim.Uppercase},
	{"~", vim.ToggleCase},
}

// Defaults returns the built-in motions, text objects and operators.
// Actions are added by the dispatch loop.
func Defaults() ([]*Descriptor, error) {
	var out []*Descriptor

	for _, m := range vim.Motions() {
		for _, k := range m.Keys {
			d, err := MotionDescriptor(m, k, MotionModes)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
	}

	for _, o := range vim.TextObjects() {
		for _, k := range o.Keys {
			d, err := ObjectDescriptor(o, k, ObjectModes)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
	}

	for _, op := range vim.Operators() {
		d, err := OperatorDescriptor(op, op.Keys, OperatorModes)
		if err != nil {
			return nil, err
		}
		out = append(out, d)

		for _, k := range op.LineKeys {
			d, err := LineDescriptor(op, k)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
	}

	for _, v := range visualOperators {
		d, err := OperatorDescriptor(v.op, v.keys, mode.SetVisual)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// LoadDefaults registers the built-in commands into r.
func LoadDefaults(r *Registry) error {
	ds, err := Defaults()
	if err != nil {
		return err
	}
	return r.RegisterAll(ds)
}
