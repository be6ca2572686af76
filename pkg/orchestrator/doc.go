// Package orchestrator wires schema loading, directive scanning, the
// processing pipeline and rendering behind a single entry point.
package orchestrator
