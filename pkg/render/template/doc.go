// Package template renders processed documents through a template engine.
// Results carry the page template, the optional per-item template and the
// output format attached by the terminal directives.
package template
