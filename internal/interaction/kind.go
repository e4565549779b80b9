package interaction

import (
	"sort"
	"time"
)

// Kind names a session flow. Kinds are registered in a fixed table; anything
// else is rejected by the registry.
type Kind string

const (
	KindInventory  Kind = "inventory"
	KindBattle     Kind = "battle"
	KindRoleSelect Kind = "role_select"
	KindApproval   Kind = "approval"
	KindEdit       Kind = "edit"
)

// DefaultTimeout is the inactivity window applied when neither the kind nor
// the registration specifies one.
const DefaultTimeout = 10 * time.Second

// Definition describes how events of one kind behave
type Definition struct {
	Kind Kind

	// Stoppable events are superseded by a newer registration of the same
	// kind. Non-stoppable ones reject the newcomer instead.
	Stoppable bool
	Timeout   time.Duration
}

var definitions = map[Kind]Definition{
	KindInventory:  {Kind: KindInventory, Stoppable: true, Timeout: DefaultTimeout},
	KindRoleSelect: {Kind: KindRoleSelect, Stoppable: true, Timeout: 30 * time.Second},
	KindEdit:       {Kind: KindEdit, Stoppable: true, Timeout: DefaultTimeout},
	KindBattle:     {Kind: KindBattle, Stoppable: false, Timeout: 30 * time.Second},
	KindApproval:   {Kind: KindApproval, Stoppable: false, Timeout: 15 * time.Minute},
}

// Lookup returns the definition for a kind
func Lookup(kind Kind) (Definition, bool) {
	def, ok := definitions[kind]
	return def, ok
}

// Definitions returns every known kind ordered by name
func Definitions() []Definition {
	out := make([]Definition, 0, len(definitions))
	for _, def := range definitions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// String implements fmt.Stringer
func (k Kind) String() string {
	return string(k)
}
