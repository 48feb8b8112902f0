// Package palette holds the 256-entry color tables used to resolve indexed
// ILDA points, together with the rule that picks the initial table.
package palette
