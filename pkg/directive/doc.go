// Package directive defines the closed catalog of schema directive kinds, the
// stage model derived from their declared dependencies, the order manager that
// turns a set of requested kinds into a deterministic stage-grouped execution
// order, and the validated directive instances attached to schema locations.
//
// Directives are declared in a schema through `x-<kind>` extensions, for
// example `x-extract-from: "items[].id"` or `x-template: "index.tpl"`. The
// catalog is built once at package initialisation and never mutated; every
// accessor hands out copies.
package directive
