//go:build !darwin

package speech

// espeak is the most commonly available synthesizer on Linux; users can
// point speech.synth_cmd at whatever they have installed.
const defaultSynthCommand = "espeak"
