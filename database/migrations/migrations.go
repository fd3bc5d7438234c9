// Package migrations holds the schema migrations of the SQL blob store.
// Each file registers itself from init(); cmd/pdv imports this package for
// its side effects.
package migrations
