package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/algo-subsynth/internal/stream"
	"github.com/cwbudde/algo-subsynth/preset"
	"github.com/cwbudde/algo-subsynth/synth"
	"github.com/ebitengine/oto/v3"
)

func main() {
	presetPath := flag.String("preset", "", "Patch JSON file path (optional)")
	voicing := flag.String("voicing", "full", "Parameter voicing when no preset is given: full or warm")
	notes := flag.String("notes", "57,60,64,69", "Comma-separated MIDI notes of the arpeggio")
	velocity := flag.Int("velocity", 100, "MIDI velocity (0-127)")
	step := flag.Duration("step", 250*time.Millisecond, "Arpeggio step")
	sweepMin := flag.Float64("sweep-min", 200, "Lowest cutoff of the sweep in Hz (0 disables the sweep)")
	sweepMax := flag.Float64("sweep-max", 4000, "Highest cutoff of the sweep in Hz")
	sweepPeriod := flag.Duration("sweep-period", 4*time.Second, "Duration of one full sweep cycle")
	duration := flag.Duration("duration", 8*time.Second, "Playback duration (0 plays until interrupted; ignored in keyboard mode)")
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate in Hz")
	blockSize := flag.Int("block-size", 256, "Processing block size in frames")
	channels := flag.Int("channels", 2, "Output channels (1 or 2)")
	keyboard := flag.Bool("keyboard", false, "Play from the computer keyboard instead of the arpeggio (a..l keys, z/x octave, q quits)")
	baseNote := flag.Int("base-note", 60, "MIDI note of the 'a' key in keyboard mode")
	flag.Parse()

	store, err := loadStore(*presetPath, *voicing)
	if err != nil {
		die("Error loading patch: %v", err)
	}
	keys, err := parseNotes(*notes)
	if err != nil {
		die("Error parsing -notes: %v", err)
	}
	proc, err := synth.NewProcessor(store)
	if err != nil {
		die("Error creating processor: %v", err)
	}
	reader, err := stream.NewReader(proc, synth.ProcessSpec{
		SampleRate:   float64(*sampleRate),
		MaxBlockSize: *blockSize,
		Channels:     *channels,
	}, 64)
	if err != nil {
		die("Error preparing stream: %v", err)
	}

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   *sampleRate,
		ChannelCount: *channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   20 * time.Millisecond,
	})
	if err != nil {
		die("Error opening audio device: %v", err)
	}
	<-ready

	player := otoCtx.NewPlayer(reader)
	player.SetBufferSize(*blockSize * *channels * stream.BytesPerSample * 4)
	player.Play()
	defer player.Pause()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if *duration > 0 && !*keyboard {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	var wg sync.WaitGroup
	if *sweepMin > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sweepCutoff(ctx, store, *sweepMin, *sweepMax, *sweepPeriod)
		}()
	}
	if *keyboard {
		fmt.Printf("Keyboard mode at %d Hz: a-l play, z/x octave, space releases, q quits\r\n", *sampleRate)
		err := withRawTerminal(func() error {
			return playKeyboard(ctx, os.Stdin, reader, *baseNote, *velocity)
		})
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "keyboard: %v\n", err)
		}
	} else {
		fmt.Printf("Playing %v at %d Hz (%d ch, block %d)...\n", keys, *sampleRate, *channels, *blockSize)
		wg.Add(1)
		go func() {
			defer wg.Done()
			arpeggiate(ctx, reader, keys, *velocity, *step)
		}()
	}
	wg.Wait()

	fmt.Printf("Stopped after %.2fs of audio\n", float64(reader.Frames())/float64(*sampleRate))
}

// sweepCutoff moves the cutoff along a logarithmic triangle between lo and
// hi. Writes go through the store, so the audio thread sees them at the
// next block boundary.
func sweepCutoff(ctx context.Context, store *synth.Store, lo, hi float64, period time.Duration) {
	def, ok := store.Def(synth.ParamCutoff)
	if !ok {
		return
	}
	lo = def.Clamp(lo)
	hi = def.Clamp(hi)
	if period <= 0 {
		period = time.Second
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			phase := math.Mod(now.Sub(start).Seconds()/period.Seconds(), 1)
			x := 1 - math.Abs(2*phase-1)
			if err := store.Set(synth.ParamCutoff, def.Clamp(lo*math.Pow(hi/lo, x))); err != nil {
				fmt.Fprintf(os.Stderr, "cutoff sweep: %v\n", err)
				return
			}
		}
	}
}

func arpeggiate(ctx context.Context, r *stream.Reader, keys []int, velocity int, step time.Duration) {
	if step <= 0 {
		step = 250 * time.Millisecond
	}
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	current := -1
	for i := 0; ; i++ {
		next := keys[i%len(keys)]
		if current >= 0 {
			r.NoteOff(current)
		}
		if !r.NoteOn(next, velocity) {
			fmt.Fprintln(os.Stderr, "event queue full, dropped note")
		}
		current = next

		select {
		case <-ctx.Done():
			r.NoteOff(current)
			return
		case <-ticker.C:
		}
	}
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
	var out []int
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 127 {
			return nil, fmt.Errorf("invalid note %q (expected 0..127)", p)
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
