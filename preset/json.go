package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-subsynth/synth"
)

// File is the JSON schema for synth patches. Unset fields keep the value
// already in the store.
type File struct {
	Voicing    string   `json:"voicing,omitempty"`
	Waveform   string   `json:"waveform,omitempty"`
	CutoffHz   *float64 `json:"cutoff_hz,omitempty"`
	ResonanceQ *float64 `json:"resonance_q,omitempty"`
	FilterType string   `json:"filter_type,omitempty"`
	GateLevel  *float64 `json:"gate_level,omitempty"`
	OutputGain *float64 `json:"output_gain,omitempty"`
}

// Parse decodes a patch document.
func Parse(b []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Read parses a patch file without applying it.
func Read(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

// LoadJSON loads a patch file and applies it on top of the default store
// for the voicing it names.
func LoadJSON(path string) (*synth.Store, error) {
	f, err := Read(path)
	if err != nil {
		return nil, err
	}
	v, err := synth.ParseVoicing(f.Voicing)
	if err != nil {
		return nil, err
	}
	store := synth.NewDefaultStore(v)
	if err := ApplyFile(store, f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

// ApplyFile applies a parsed patch onto an existing store. Values are
// checked against the store's declarations; the first rejected field
// aborts with the store partially updated.
func ApplyFile(dst *synth.Store, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination store")
	}
	if f == nil {
		return nil
	}

	if s := strings.TrimSpace(f.Waveform); s != "" {
		w, err := synth.ParseWaveform(s)
		if err != nil {
			return fmt.Errorf("waveform: %w", err)
		}
		if err := dst.Set(synth.ParamWaveform, float64(w)); err != nil {
			return fmt.Errorf("waveform: %w", err)
		}
	}
	if f.CutoffHz != nil {
		if err := dst.Set(synth.ParamCutoff, *f.CutoffHz); err != nil {
			return fmt.Errorf("cutoff_hz: %w", err)
		}
	}
	if f.ResonanceQ != nil {
		if err := dst.Set(synth.ParamResonance, *f.ResonanceQ); err != nil {
			return fmt.Errorf("resonance_q: %w", err)
		}
	}
	if s := strings.TrimSpace(f.FilterType); s != "" {
		ft, err := synth.ParseFilterType(s)
		if err != nil {
			return fmt.Errorf("filter_type: %w", err)
		}
		if err := dst.Set(synth.ParamFilterType, float64(ft)); err != nil {
			return fmt.Errorf("filter_type: %w", err)
		}
	}
	if f.GateLevel != nil {
		if err := dst.Set(synth.ParamGateLevel, *f.GateLevel); err != nil {
			return fmt.Errorf("gate_level: %w", err)
		}
	}
	if f.OutputGain != nil {
		if err := dst.Set(synth.ParamOutputGain, *f.OutputGain); err != nil {
			return fmt.Errorf("output_gain: %w", err)
		}
	}
	return nil
}

// FromStore captures the current store values as a patch. Parameters the
// store does not declare are left unset.
func FromStore(s *synth.Store, v synth.Voicing) *File {
	f := &File{Voicing: v.String()}
	if w, ok := s.Get(synth.ParamWaveform); ok {
		f.Waveform = synth.Waveform(w).String()
	}
	f.CutoffHz = get(s, synth.ParamCutoff)
	f.ResonanceQ = get(s, synth.ParamResonance)
	if ft, ok := s.Get(synth.ParamFilterType); ok {
		f.FilterType = synth.FilterType(ft).String()
	}
	f.GateLevel = get(s, synth.ParamGateLevel)
	f.OutputGain = get(s, synth.ParamOutputGain)
	return f
}

func get(s *synth.Store, id string) *float64 {
	v, ok := s.Get(id)
	if !ok {
		return nil
	}
	return &v
}

// WriteJSON writes f as indented JSON.
func WriteJSON(path string, f *File) error {
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
