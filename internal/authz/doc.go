// Package authz provides pure authorization predicates over an
// authenticated identity.
//
// Every check is a function of the identity alone. The package performs
// no I/O and holds no mutable state, so checks are safe to run
// concurrently and compose freely. Denials carry a stable machine code
// and enough context to explain the decision.
package authz
