//go:build js && wasm

package main

import (
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/algo-subsynth/preset"
	"github.com/cwbudde/algo-subsynth/synth"
)

const maxFrames = 128

var (
	globalStore  *synth.Store
	globalProc   *synth.Processor
	block        [][]float32
	outputBuffer []float32
	events       []synth.NoteEvent
)

func main() {
	// Keep program running
	c := make(chan struct{})

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmNoteOn", js.FuncOf(wasmNoteOn))
	js.Global().Set("wasmNoteOff", js.FuncOf(wasmNoteOff))
	js.Global().Set("wasmSetParam", js.FuncOf(wasmSetParam))
	js.Global().Set("wasmSetChoice", js.FuncOf(wasmSetChoice))
	js.Global().Set("wasmLoadPatch", js.FuncOf(wasmLoadPatch))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM synth module loaded")
	<-c
}

// wasmInit(sampleRate, [voicing]) prepares a stereo processor.
func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	sampleRate := args[0].Int()
	voicing := synth.VoicingFull
	if len(args) > 1 {
		v, err := synth.ParseVoicing(args[1].String())
		if err != nil {
			println("init failed:", err.Error())
			return nil
		}
		voicing = v
	}

	globalStore = synth.NewDefaultStore(voicing)
	p, err := synth.NewProcessor(globalStore)
	if err != nil {
		println("init failed:", err.Error())
		return nil
	}
	if err := p.Prepare(synth.ProcessSpec{SampleRate: float64(sampleRate), MaxBlockSize: maxFrames, Channels: 2}); err != nil {
		println("init failed:", err.Error())
		return nil
	}
	globalProc = p

	block = synth.NewBlock(2, maxFrames)
	outputBuffer = make([]float32, maxFrames*2)
	events = make([]synth.NoteEvent, 0, synth.DefaultMaxEvents)

	println("Synth initialized at", sampleRate, "Hz")
	return nil
}

func wasmNoteOn(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || globalProc == nil {
		return nil
	}
	queue(synth.NoteOnEvent(0, args[0].Int(), args[1].Int()))
	return nil
}

func wasmNoteOff(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalProc == nil {
		return nil
	}
	queue(synth.NoteOffEvent(0, args[0].Int()))
	return nil
}

func queue(ev synth.NoteEvent) {
	if len(events) < cap(events) {
		events = append(events, ev)
	}
}

// wasmSetParam(id, value) returns an error string or null.
func wasmSetParam(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || globalStore == nil {
		return nil
	}
	if err := globalStore.Set(args[0].String(), args[1].Float()); err != nil {
		return err.Error()
	}
	return nil
}

// wasmSetChoice(id, label) returns an error string or null.
func wasmSetChoice(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || globalStore == nil {
		return nil
	}
	if err := globalStore.SetChoice(args[0].String(), args[1].String()); err != nil {
		return err.Error()
	}
	return nil
}

// wasmLoadPatch(json) applies a patch document on top of the current values.
func wasmLoadPatch(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalStore == nil {
		return nil
	}
	f, err := preset.Parse([]byte(args[0].String()))
	if err != nil {
		return err.Error()
	}
	if err := preset.ApplyFile(globalStore, f); err != nil {
		return err.Error()
	}
	return nil
}

func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalProc == nil {
		return 0
	}

	numFrames := args[0].Int()
	if numFrames > maxFrames {
		numFrames = maxFrames
	}
	if numFrames < 1 {
		return 0
	}

	view := [][]float32{block[0][:numFrames], block[1][:numFrames]}
	globalProc.Process(view, events)
	events = events[:0]
	synth.Interleave(outputBuffer, view, numFrames)

	// Return pointer to buffer in WASM linear memory
	ptr := &outputBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
