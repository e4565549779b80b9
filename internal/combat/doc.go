// Package combat holds the clash damage model: derived stats computed from
// base attributes, weapon multiplier expressions, damage with jitter and
// armour mitigation, and the battle clock that abilities react to.
//
// Everything here is ephemeral. Entities are built per calculation from
// stored records and dropped when the calculation returns. A Battle and the
// abilities bound to it are driven from a single goroutine.
package combat
