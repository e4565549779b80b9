package combat

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
)

// Op is how a top-level multiplier folds into the damage accumulator
type Op string

const (
	OpAdd      Op = "add"
	OpMultiply Op = "multiply"
)

// IsValid reports whether the op is known
func (o Op) IsValid() bool {
	return o == OpAdd || o == OpMultiply
}

// Expr is a multiplier expression (stat, op, operand). The operand is either
// a number or another expression. Encoded as a three element list:
//
//	[bruteForce, add, 1]
//	[bruteForce, multiply, [weaponPrecision, add, 2]]
type Expr struct {
	Stat   Stat
	Op     Op
	Value  float64
	Nested *Expr
}

// Validate checks stat keys and ops through the whole tree
func (e *Expr) Validate() error {
	if e == nil {
		return errors.InvalidArgument("multiplier expression is nil")
	}
	for depth, cur := 0, e; cur != nil; depth, cur = depth+1, cur.Nested {
		if !cur.Stat.IsValid() {
			return errors.InvalidArgumentf("unknown stat %q in multiplier", cur.Stat).
				WithMeta("stat", string(cur.Stat)).
				WithMeta("depth", depth)
		}
		if !cur.Op.IsValid() {
			return errors.InvalidArgumentf("unknown operation %q in multiplier", cur.Op).
				WithMeta("op", string(cur.Op)).
				WithMeta("depth", depth)
		}
	}
	return nil
}

// EvaluateMultiplier resolves an expression against base stats:
// stat*operand for a numeric operand, stat*EvaluateMultiplier(operand)
// for a nested one.
func EvaluateMultiplier(b BaseStats, e *Expr) (float64, error) {
	if e == nil {
		return 0, errors.InvalidArgument("multiplier expression is nil")
	}

	v, err := Value(b, e.Stat)
	if err != nil {
		return 0, err
	}
	if e.Nested == nil {
		return v * e.Value, nil
	}

	inner, err := EvaluateMultiplier(b, e.Nested)
	if err != nil {
		return 0, err
	}
	return v * inner, nil
}

// String renders the expression in its list form
func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}
	if e.Nested != nil {
		return fmt.Sprintf("[%s %s %s]", e.Stat, e.Op, e.Nested)
	}
	return fmt.Sprintf("[%s %s %g]", e.Stat, e.Op, e.Value)
}

func (e *Expr) operand() any {
	if e.Nested != nil {
		return e.Nested
	}
	return e.Value
}

// MarshalJSON implements json.Marshaler
func (e Expr) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Stat, e.Op, e.operand()})
}

// UnmarshalJSON implements json.Unmarshaler
func (e *Expr) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return errors.InvalidArgumentf("multiplier must be a [stat, op, operand] list: %v", err)
	}
	if len(parts) != 3 {
		return errors.InvalidArgumentf("multiplier must have 3 elements, got %d", len(parts))
	}

	var out Expr
	if err := json.Unmarshal(parts[0], &out.Stat); err != nil {
		return errors.InvalidArgumentf("multiplier stat must be a string: %v", err)
	}
	if err := json.Unmarshal(parts[1], &out.Op); err != nil {
		return errors.InvalidArgumentf("multiplier op must be a string: %v", err)
	}
	if err := json.Unmarshal(parts[2], &out.Value); err != nil {
		var nested Expr
		if nerr := json.Unmarshal(parts[2], &nested); nerr != nil {
			return nerr
		}
		out.Nested = &nested
	}

	*e = out
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (e Expr) MarshalYAML() (any, error) {
	return []any{string(e.Stat), string(e.Op), e.operand()}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (e *Expr) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode || len(node.Content) != 3 {
		return errors.InvalidArgumentf("line %d: multiplier must be a [stat, op, operand] list", node.Line)
	}

	var out Expr
	if err := node.Content[0].Decode(&out.Stat); err != nil {
		return err
	}
	if err := node.Content[1].Decode(&out.Op); err != nil {
		return err
	}

	operand := node.Content[2]
	switch operand.Kind {
	case yaml.ScalarNode:
		if err := operand.Decode(&out.Value); err != nil {
			return errors.InvalidArgumentf("line %d: multiplier operand must be a number", operand.Line)
		}
	case yaml.SequenceNode:
		var nested Expr
		if err := operand.Decode(&nested); err != nil {
			return err
		}
		out.Nested = &nested
	default:
		return errors.InvalidArgumentf("line %d: multiplier operand must be a number or a list", operand.Line)
	}

	*e = out
	return nil
}
