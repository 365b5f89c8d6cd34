package analysis

import (
	"math"
)

// Metrics contains distance and similarity measurements between two audio signals.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	TimeRMSE       float64 `json:"time_rmse"`
	EnvelopeRMSEDB float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB float64 `json:"spectral_rmse_db"`
	RefCentroidHz  float64 `json:"ref_centroid_hz"`
	CandCentroidHz float64 `json:"cand_centroid_hz"`
	CentroidDiffOc float64 `json:"centroid_diff_octaves"`

	TimeNorm     float64 `json:"time_norm"`
	EnvelopeNorm float64 `json:"envelope_norm"`
	SpectralNorm float64 `json:"spectral_norm"`
	CentroidNorm float64 `json:"centroid_norm"`
	Dominant     string  `json:"dominant"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Score weights; they sum to 1.
const (
	WeightTime     = 0.20
	WeightEnvelope = 0.20
	WeightSpectral = 0.40
	WeightCentroid = 0.20
)

const (
	envFrame      = 256
	envHop        = 128
	spectrumFrame = 8192
)

// Compare returns objective distance metrics and a combined score in [0,1]
// (0 = identical). Signals are trimmed of leading silence, RMS-normalized
// and aligned by cross-correlation first.
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1,
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		return m
	}

	ref := normalizeRMS(trimLeadingSilence(reference, 1e-6), 0.1)
	cand := normalizeRMS(trimLeadingSilence(candidate, 1e-6), 0.1)
	if len(ref) == 0 || len(cand) == 0 {
		return m
	}

	maxLag := minInt(sampleRate/20, minInt(len(ref), len(cand))-1)
	if maxLag < 1 {
		maxLag = 1
	}
	m.LagSamples = estimateLag(ref, cand, maxLag)
	refA, candA := alignByLag(ref, cand, m.LagSamples)
	n := minInt(len(refA), len(candA))
	if n < envFrame*2 {
		return m
	}
	refA, candA = refA[:n], candA[:n]
	m.AlignedFrames = n

	m.TimeRMSE = rmse(refA, candA)

	refEnv := rmsEnvelope(refA, envFrame, envHop)
	candEnv := rmsEnvelope(candA, envFrame, envHop)
	envDiff := make([]float64, minInt(len(refEnv), len(candEnv)))
	for i := range envDiff {
		envDiff[i] = linToDB(refEnv[i]) - linToDB(candEnv[i])
	}
	m.EnvelopeRMSEDB = rms1(envDiff)

	frame := minInt(n, spectrumFrame)
	refSpec, errR := ComputeSpectrum(refA[:frame], sampleRate)
	candSpec, errC := ComputeSpectrum(candA[:frame], sampleRate)
	if errR == nil && errC == nil {
		m.SpectralRMSEDB = spectralRMSEDB(refSpec.Magnitudes, candSpec.Magnitudes)
		m.RefCentroidHz = centroid(refSpec)
		m.CandCentroidHz = centroid(candSpec)
		if m.RefCentroidHz > 0 && m.CandCentroidHz > 0 {
			m.CentroidDiffOc = math.Abs(math.Log2(m.CandCentroidHz / m.RefCentroidHz))
		}
	}

	m.TimeNorm = clamp01(m.TimeRMSE / 0.25)
	m.EnvelopeNorm = clamp01(m.EnvelopeRMSEDB / 30.0)
	m.SpectralNorm = clamp01(m.SpectralRMSEDB / 30.0)
	m.CentroidNorm = clamp01(m.CentroidDiffOc / 2.0)

	contrib := [...]struct {
		name string
		v    float64
	}{
		{"time", WeightTime * m.TimeNorm},
		{"envelope", WeightEnvelope * m.EnvelopeNorm},
		{"spectral", WeightSpectral * m.SpectralNorm},
		{"centroid", WeightCentroid * m.CentroidNorm},
	}
	var sum, best float64
	for _, c := range contrib {
		sum += c.v
		if c.v > best {
			best = c.v
			m.Dominant = c.name
		}
	}
	m.Score = clamp01(sum)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))
	return m
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i := 0; i < len(x); i++ {
		if math.Abs(x[i]) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	if len(x) == 0 {
		return x
	}
	r := rms1(x)
	if r <= 1e-12 {
		return append([]float64(nil), x...)
	}
	g := target / r
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] * g
	}
	return out
}

func estimateLag(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	step := 1
	if len(ref) > 100000 || len(cand) > 100000 {
		step = 2
	}
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		s := dotAtLag(ref, cand, lag, step)
		if s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func dotAtLag(a []float64, b []float64, lag int, step int) float64 {
	ai, bi := 0, 0
	if lag >= 0 {
		ai = lag
	} else {
		bi = -lag
	}
	n := minInt(len(a)-ai, len(b)-bi)
	var sum float64
	for i := 0; i < n; i += step {
		sum += a[ai+i] * b[bi+i]
	}
	return sum
}

func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	if -lag >= len(cand) {
		return nil, nil
	}
	return ref, cand[-lag:]
}

func rmse(a []float64, b []float64) float64 {
	n := minInt(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	out := make([]float64, 1+(len(x)-frame)/hop)
	for i := range out {
		start := i * hop
		out[i] = rms1(x[start : start+frame])
	}
	return out
}

func spectralRMSEDB(a []float64, b []float64) float64 {
	bins := minInt(len(a), len(b))
	if bins < 3 {
		return 0
	}
	var sum float64
	for k := 1; k < bins; k++ {
		d := linToDB(a[k]) - linToDB(b[k])
		sum += d * d
	}
	return math.Sqrt(sum / float64(bins-1))
}

func centroid(s Spectrum) float64 {
	var weighted, total float64
	binHz := s.BinHz()
	for k := 1; k < len(s.Magnitudes); k++ {
		weighted += float64(k) * binHz * s.Magnitudes[k]
		total += s.Magnitudes[k]
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// linToDB floors at -120 dB so silent bins do not dominate.
func linToDB(x float64) float64 {
	if x < 1e-6 {
		x = 1e-6
	}
	return 20.0 * math.Log10(x)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
