//go:build darwin

package speech

// macOS ships a synthesizer out of the box.
const defaultSynthCommand = "say"
