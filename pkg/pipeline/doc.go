// Package pipeline applies a validated directive set to front-matter records.
//
// Directives run in stage buckets computed by the directive order manager.
// Every instance in a bucket reads the same input record and produces an
// effect; effects are applied in catalog order once the whole bucket has
// succeeded, so a document either completes every stage or yields no result.
package pipeline
