// Package window builds FFT window function coefficient tables.
//
// Coefficients are precomputed once per (re)configuration and applied
// element-wise to the analysis buffer before the transform. The
// coefficient sum is retained so magnitudes can be renormalized for the
// energy the window removes.
package window

import "math"

// Function identifies a window function family.
type Function int

const (
	// None applies no window (rectangular).
	None Function = iota
	// Hann is the raised-cosine window.
	Hann
	// Hamming is the Hamming window.
	Hamming
	// Blackman is the three-term Blackman window.
	Blackman
	// BlackmanHarris is the four-term Blackman-Harris window.
	BlackmanHarris
)

// String returns the window family name.
func (f Function) String() string {
	switch f {
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Blackman:
		return "blackman"
	case BlackmanHarris:
		return "blackman-harris"
	default:
		return "none"
	}
}

// Coefficients holds a precomputed window table and its sum.
type Coefficients struct {
	Weights []float64
	Sum     float64
}

// New precomputes window coefficients for an analysis window of n
// samples. For Function None it returns nil: no multiply is performed
// and the plain 2/N magnitude normalization applies.
func New(f Function, n int) *Coefficients {
	if f == None || n < 2 {
		return nil
	}

	w := make([]float64, n)
	den := float64(n - 1)
	for i := range w {
		x := float64(i) / den
		switch f {
		case Hann:
			w[i] = 0.5 * (1 - math.Cos(2*math.Pi*x))
		case Hamming:
			w[i] = 0.53836 - 0.46164*math.Cos(2*math.Pi*x)
		case Blackman:
			w[i] = 0.42 - 0.5*math.Cos(2*math.Pi*x) + 0.08*math.Cos(4*math.Pi*x)
		case BlackmanHarris:
			w[i] = 0.35875 - 0.48829*math.Cos(2*math.Pi*x) +
				0.14128*math.Cos(4*math.Pi*x) - 0.01168*math.Cos(6*math.Pi*x)
		}
	}

	var sum float64
	for _, v := range w {
		sum += v
	}

	return &Coefficients{Weights: w, Sum: sum}
}
