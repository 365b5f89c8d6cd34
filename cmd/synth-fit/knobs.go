package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-subsynth/synth"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
	Log   bool // search the range on a logarithmic scale
}

type candidate struct {
	Vals []float64
}

// parseKnobGroups parses a comma-separated list of knob groups.
// Valid groups: tone, filter, level.
func parseKnobGroups(raw string) (map[string]bool, error) {
	valid := map[string]bool{"tone": true, "filter": true, "level": true}
	groups := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !valid[s] {
			return nil, fmt.Errorf("unknown optimize group %q (valid: tone, filter, level)", s)
		}
		groups[s] = true
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no optimize groups specified")
	}
	return groups, nil
}

// initCandidate builds the search space from the store's declarations and
// seeds it with the store's current values.
func initCandidate(base *synth.Store, groups map[string]bool) ([]knobDef, candidate) {
	defs := make([]knobDef, 0, 6)
	vals := make([]float64, 0, 6)
	addKnob := func(id string, isInt, log bool) {
		d, ok := base.Def(id)
		if !ok {
			return
		}
		v, _ := base.Get(id)
		defs = append(defs, knobDef{Name: id, Min: d.Min, Max: d.Max, IsInt: isInt, Log: log})
		vals = append(vals, v)
	}

	if groups["tone"] {
		addKnob(synth.ParamWaveform, true, false)
	}
	if groups["filter"] {
		addKnob(synth.ParamCutoff, false, true)
		addKnob(synth.ParamResonance, false, false)
		addKnob(synth.ParamFilterType, true, false)
	}
	if groups["level"] {
		addKnob(synth.ParamGateLevel, false, false)
		addKnob(synth.ParamOutputGain, false, false)
	}

	for i := range vals {
		vals[i] = clamp(vals[i], defs[i].Min, defs[i].Max)
		if defs[i].IsInt {
			vals[i] = math.Round(vals[i])
		}
	}
	return defs, candidate{Vals: vals}
}

// applyCandidate returns a copy of base with the candidate's values set.
func applyCandidate(base *synth.Store, defs []knobDef, c candidate) (*synth.Store, error) {
	s, err := cloneStore(base)
	if err != nil {
		return nil, err
	}
	for i, d := range defs {
		v := clamp(c.Vals[i], d.Min, d.Max)
		if d.IsInt {
			v = math.Round(v)
		}
		if err := s.Set(d.Name, v); err != nil {
			return nil, fmt.Errorf("knob %s: %w", d.Name, err)
		}
	}
	return s, nil
}

func cloneStore(src *synth.Store) (*synth.Store, error) {
	dst, err := synth.NewStore(src.Defs()...)
	if err != nil {
		return nil, err
	}
	for _, d := range src.Defs() {
		v, _ := src.Get(d.ID)
		if err := dst.Set(d.ID, v); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i, d := range defs {
		x := 0.0
		if i < len(pos) {
			x = clamp(pos[i], 0, 1)
		}
		var v float64
		if d.Log && d.Min > 0 {
			v = d.Min * math.Pow(d.Max/d.Min, x)
		} else {
			v = d.Min + x*(d.Max-d.Min)
		}
		if d.IsInt {
			v = math.Round(v)
		}
		vals[i] = clamp(v, d.Min, d.Max)
	}
	return candidate{Vals: vals}
}

func knobMap(defs []knobDef, c candidate) map[string]float64 {
	out := make(map[string]float64, len(defs))
	for i, d := range defs {
		out[d.Name] = c.Vals[i]
	}
	return out
}

func parseWorkers(raw string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return 0, fmt.Errorf("empty value (use integer >= 1 or 'auto')")
	}
	if v == "auto" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q (use integer >= 1 or 'auto')", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%d (must be >= 1 or 'auto')", n)
	}
	return n, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
