package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-subsynth/internal/wavio"
	"github.com/cwbudde/algo-subsynth/preset"
	"github.com/cwbudde/algo-subsynth/synth"
)

func main() {
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	presetPath := flag.String("preset", "", "Base patch JSON path (optional)")
	voicingFlag := flag.String("voicing", "full", "Voicing of the base patch when -preset is empty: full or warm")
	outputPreset := flag.String("output-preset", "out/fitted.json", "Path to write the best fitted patch JSON")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-preset>.report.json)")
	optimize := flag.String("optimize", "tone,filter,level", "Comma-separated knob groups to optimize: tone, filter, level")
	note := flag.Int("note", 69, "MIDI note to fit")
	velocity := flag.Int("velocity", 100, "MIDI velocity for rendering during fit")
	releaseAfter := flag.Float64("release-after", 0.8, "Seconds before NoteOff for each evaluation render")
	duration := flag.Float64("duration", 1.0, "Render duration in seconds")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	blockSize := flag.Int("block-size", 128, "Audio render block size for candidate evaluation")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 60.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 2000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 50, "Print progress every N evaluations")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in report")
	workers := flag.String("workers", "1", "Parallel optimization workers running independent Mayfly rounds (number or 'auto')")
	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	groups, err := parseKnobGroups(*optimize)
	if err != nil {
		die("invalid --optimize: %v", err)
	}
	if *outputPreset == "" {
		die("output-preset must not be empty")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *releaseAfter < 0.05 {
		*releaseAfter = 0.05
	}
	if *duration < *releaseAfter {
		*duration = *releaseAfter
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyRoundEvals < *mayflyPop*2 {
		*mayflyRoundEvals = *mayflyPop * 2
	}
	if *topK < 1 {
		*topK = 1
	}
	if *blockSize < 16 {
		*blockSize = 16
	}
	parsedWorkers, err := parseWorkers(*workers)
	if err != nil {
		die("invalid workers value: %v", err)
	}

	voicing, err := synth.ParseVoicing(*voicingFlag)
	if err != nil {
		die("invalid voicing: %v", err)
	}
	base := synth.NewDefaultStore(voicing)
	if *presetPath != "" {
		f, err := preset.Read(*presetPath)
		if err != nil {
			die("failed to load preset: %v", err)
		}
		if voicing, err = synth.ParseVoicing(f.Voicing); err != nil {
			die("invalid preset voicing: %v", err)
		}
		base = synth.NewDefaultStore(voicing)
		if err := preset.ApplyFile(base, f); err != nil {
			die("failed to apply preset: %v", err)
		}
	}

	refRaw, refSR, err := wavio.ReadMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref, err := wavio.Resample(refRaw, refSR, *sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	defs, initCand := initCandidate(base, groups)
	cfg := &optimizationConfig{
		reference:        ref,
		base:             base,
		defs:             defs,
		initCandidate:    initCand,
		note:             *note,
		velocity:         *velocity,
		releaseAfter:     *releaseAfter,
		duration:         *duration,
		sampleRate:       *sampleRate,
		blockSize:        *blockSize,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		mayflyVariant:    strings.ToLower(*mayflyVariant),
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          parsedWorkers,
		topK:             *topK,
	}

	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}
	if err := writeOutputs(cfg, result, voicing, *outputPreset, *reportPath, *referencePath, *presetPath); err != nil {
		die("failed to write outputs: %v", err)
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n",
		result.evals, result.elapsed, result.bestMetrics.Score, result.bestMetrics.Similarity*100.0, cfg.mayflyVariant)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
