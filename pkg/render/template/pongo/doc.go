// Package pongo implements template.TemplateRenderer on top of pongo2.
package pongo
