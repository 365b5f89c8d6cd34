package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-subsynth/internal/wavio"
	"github.com/cwbudde/algo-subsynth/preset"
	"github.com/cwbudde/algo-subsynth/render"
	"github.com/cwbudde/algo-subsynth/synth"
)

func main() {
	// Command-line flags
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	notes := flag.String("notes", "", "Comma-separated MIDI notes played as an arpeggio (overrides -note)")
	step := flag.Float64("step", 0.25, "Arpeggio step in seconds")
	velocity := flag.Int("velocity", 100, "MIDI velocity (0-127)")
	duration := flag.Float64("duration", 2.0, "Total duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.5, "Send NoteOff after this many seconds")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	outputRate := flag.Int("output-rate", 0, "Resample the result to this rate before writing (0 = render rate)")
	blockSize := flag.Int("block-size", 128, "Processing block size in frames")
	channels := flag.Int("channels", 2, "Output channels (1 or 2)")
	presetPath := flag.String("preset", "", "Patch JSON file path (optional)")
	voicing := flag.String("voicing", "full", "Parameter voicing when no preset is given: full or warm")
	waveform := flag.String("waveform", "", "Waveform override (sine, saw, square, triangle, pinky, ponky)")
	cutoff := flag.Float64("cutoff", math.NaN(), "Cutoff frequency override in Hz")
	q := flag.Float64("q", math.NaN(), "Resonance override")
	filterType := flag.String("filter", "", "Filter type override (low-pass, band-pass, high-pass)")
	gate := flag.Float64("gate", math.NaN(), "Gate level override (0-1)")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	store, err := loadStore(*presetPath, *voicing)
	if err != nil {
		die("Error loading patch: %v", err)
	}
	overrides := &preset.File{Waveform: *waveform, FilterType: *filterType}
	if !math.IsNaN(*cutoff) {
		overrides.CutoffHz = cutoff
	}
	if !math.IsNaN(*q) {
		overrides.ResonanceQ = q
	}
	if !math.IsNaN(*gate) {
		overrides.GateLevel = gate
	}
	if err := preset.ApplyFile(store, overrides); err != nil {
		die("Error applying overrides: %v", err)
	}

	proc, err := synth.NewProcessor(store)
	if err != nil {
		die("Error creating processor: %v", err)
	}

	schedule := []render.Note{{Note: *note, Velocity: *velocity, Length: *releaseAfter}}
	if *notes != "" {
		keys, err := parseNotes(*notes)
		if err != nil {
			die("Error parsing -notes: %v", err)
		}
		schedule = render.Arpeggio(keys, *velocity, 0, *step, *step)
	}

	wave, _ := store.Choice(synth.ParamWaveform)
	cut, _ := store.Get(synth.ParamCutoff)
	res, _ := store.Get(synth.ParamResonance)
	ft, _ := store.Choice(synth.ParamFilterType)
	fmt.Printf("Rendering %d note(s) for %.2f seconds at %d Hz (wave: %s, %s %.1f Hz, Q %.2f)...\n",
		len(schedule), *duration, *sampleRate, wave, ft, cut, res)

	cfg := render.Config{
		SampleRate: *sampleRate,
		BlockSize:  *blockSize,
		Channels:   *channels,
		Duration:   *duration,
	}
	samples, err := render.Render(proc, cfg, schedule)
	if err != nil {
		die("Error rendering: %v", err)
	}

	rate := *sampleRate
	if *outputRate > 0 && *outputRate != rate {
		samples, err = wavio.ResampleInterleaved(samples, *channels, rate, *outputRate)
		if err != nil {
			die("Error resampling to %d Hz: %v", *outputRate, err)
		}
		rate = *outputRate
	}

	if err := wavio.WriteInterleaved(*output, samples, *channels, rate); err != nil {
		die("Error writing WAV file: %v", err)
	}
	fmt.Printf("Successfully wrote %s (%d frames at %d Hz)\n", *output, len(samples)/(*channels), rate)
}

func loadStore(path, voicing string) (*synth.Store, error) {
	if path != "" {
		return preset.LoadJSON(path)
	}
	v, err := synth.ParseVoicing(voicing)
	if err != nil {
		return nil, err
	}
	return synth.NewDefaultStore(v), nil
}

func parseNotes(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid note %q", p)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no notes in %q", raw)
	}
	return out, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
