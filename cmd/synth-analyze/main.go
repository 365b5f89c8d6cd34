package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-subsynth/analysis"
	"github.com/cwbudde/algo-subsynth/internal/wavio"
	"github.com/cwbudde/algo-subsynth/preset"
	"github.com/cwbudde/algo-subsynth/render"
	"github.com/cwbudde/algo-subsynth/synth"
)

type report struct {
	Path          string            `json:"path"`
	SampleRate    int               `json:"sample_rate"`
	Frames        int               `json:"frames"`
	RMS           float64           `json:"rms"`
	Peak          float64           `json:"peak"`
	PeakFreqHz    float64           `json:"peak_freq_hz"`
	Comparison    *analysis.Metrics `json:"comparison,omitempty"`
	ReferencePath string            `json:"reference_path,omitempty"`
}

func main() {
	input := flag.String("input", "", "WAV file to analyze; if empty, render one from -preset")
	referencePath := flag.String("reference", "", "Optional reference WAV to compare against")
	presetPath := flag.String("preset", "", "Patch JSON used when rendering (optional)")
	note := flag.Int("note", 69, "MIDI note for the rendered candidate")
	velocity := flag.Int("velocity", 100, "MIDI velocity for the rendered candidate")
	duration := flag.Float64("duration", 1.0, "Rendered duration in seconds")
	releaseAfter := flag.Float64("release-after", 0.8, "Note hold time for the rendered candidate")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	minHz := flag.Float64("min-hz", 20, "Lower bound of the peak frequency search")
	maxHz := flag.Float64("max-hz", 8000, "Upper bound of the peak frequency search")
	writeCandidate := flag.String("write-candidate", "", "Optional path to write the rendered candidate WAV")
	jsonOut := flag.Bool("json", false, "Print the report as JSON")
	flag.Parse()

	var (
		signal []float64
		name   string
		err    error
	)
	if *input != "" {
		name = *input
		signal, err = readAt(*input, *sampleRate)
		if err != nil {
			die("failed to read input: %v", err)
		}
	} else {
		name = "rendered"
		signal, err = renderCandidate(*presetPath, *note, *velocity, *duration, *releaseAfter, *sampleRate, *writeCandidate)
		if err != nil {
			die("failed to render candidate: %v", err)
		}
	}

	rep := report{Path: name, SampleRate: *sampleRate, Frames: len(signal)}
	mono := make([]float32, len(signal))
	for i, v := range signal {
		mono[i] = float32(v)
	}
	rep.RMS = analysis.RMS(mono)
	rep.Peak = analysis.Peak(mono)
	if f, err := analysis.PeakFrequency(mono, *sampleRate, *minHz, *maxHz); err == nil {
		rep.PeakFreqHz = f
	}

	if *referencePath != "" {
		ref, err := readAt(*referencePath, *sampleRate)
		if err != nil {
			die("failed to read reference: %v", err)
		}
		m := analysis.Compare(ref, signal, *sampleRate)
		rep.Comparison = &m
		rep.ReferencePath = *referencePath
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}
	printReport(rep)
}

func readAt(path string, sampleRate int) ([]float64, error) {
	x, sr, err := wavio.ReadMono(path)
	if err != nil {
		return nil, err
	}
	return wavio.Resample(x, sr, sampleRate)
}

func renderCandidate(presetPath string, note, velocity int, duration, releaseAfter float64, sampleRate int, writePath string) ([]float64, error) {
	store := synth.NewDefaultStore(synth.VoicingFull)
	if presetPath != "" {
		var err error
		if store, err = preset.LoadJSON(presetPath); err != nil {
			return nil, err
		}
	}
	proc, err := synth.NewProcessor(store)
	if err != nil {
		return nil, err
	}
	cfg := render.Config{SampleRate: sampleRate, BlockSize: 128, Channels: 2, Duration: duration}
	st, err := render.Render(proc, cfg, []render.Note{{Note: note, Velocity: velocity, Length: releaseAfter}})
	if err != nil {
		return nil, err
	}
	if writePath != "" {
		if err := wavio.WriteInterleaved(writePath, st, 2, sampleRate); err != nil {
			return nil, err
		}
	}
	return wavio.ToMono(st, 2), nil
}

func printReport(r report) {
	fmt.Printf("Signal:           %s\n", r.Path)
	fmt.Printf("Frames:           %d (%.3fs at %d Hz)\n", r.Frames, float64(r.Frames)/float64(r.SampleRate), r.SampleRate)
	fmt.Printf("RMS:              %.6f (%.1f dBFS)\n", r.RMS, dbfs(r.RMS))
	fmt.Printf("Peak:             %.6f (%.1f dBFS)\n", r.Peak, dbfs(r.Peak))
	fmt.Printf("Peak frequency:   %.2f Hz\n", r.PeakFreqHz)
	if r.Comparison == nil {
		return
	}

	m := r.Comparison
	fmt.Println()
	fmt.Printf("Reference:        %s\n", r.ReferencePath)
	fmt.Printf("Aligned frames:   %d\n", m.AlignedFrames)
	fmt.Printf("Lag:              %d samples (%.3f ms)\n", m.LagSamples, 1000.0*float64(m.LagSamples)/float64(m.SampleRate))
	fmt.Println()
	fmt.Printf("Component        Raw          Norm   Weight  Contribution\n")
	fmt.Printf("─────────────────────────────────────────────────────────\n")
	printComp := func(name string, raw string, norm, weight float64, dominant bool) {
		marker := ""
		if dominant {
			marker = " ◄"
		}
		fmt.Printf("%-16s %-12s %5.1f%%  ×%.2f   → %.4f%s\n", name, raw, norm*100, weight, norm*weight, marker)
	}
	printComp("Time RMSE", fmt.Sprintf("%.6f", m.TimeRMSE), m.TimeNorm, analysis.WeightTime, m.Dominant == "time")
	printComp("Envelope RMSE", fmt.Sprintf("%.1f dB", m.EnvelopeRMSEDB), m.EnvelopeNorm, analysis.WeightEnvelope, m.Dominant == "envelope")
	printComp("Spectral RMSE", fmt.Sprintf("%.1f dB", m.SpectralRMSEDB), m.SpectralNorm, analysis.WeightSpectral, m.Dominant == "spectral")
	printComp("Centroid diff", fmt.Sprintf("%.2f oct", m.CentroidDiffOc), m.CentroidNorm, analysis.WeightCentroid, m.Dominant == "centroid")
	fmt.Printf("─────────────────────────────────────────────────────────\n")
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", m.Score)
	fmt.Printf("Similarity:       %.2f%%\n", m.Similarity*100.0)
	fmt.Printf("Dominant factor:  %s\n", m.Dominant)
	fmt.Printf("\nCentroids: ref=%.1f Hz  cand=%.1f Hz\n", m.RefCentroidHz, m.CandCentroidHz)
}

func dbfs(x float64) float64 {
	return 20 * math.Log10(math.Max(x, 1e-9))
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
