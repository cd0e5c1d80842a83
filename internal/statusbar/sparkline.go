package statusbar

import (
	"math"
	"strings"
)

var sparkBlocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline is a fixed-length rolling window of samples rendered as block
// characters scaled against the window maximum.
type Sparkline struct {
	Enabled     bool
	Logarithmic bool
	data        []uint64
}

// MaxSparklineLength bounds the window length.
const MaxSparklineLength = 256

// NewSparkline creates a sparkline holding length zero samples. A
// non-positive length falls back to 10; longer windows are cut to
// MaxSparklineLength.
func NewSparkline(enabled bool, length int, logarithmic bool) *Sparkline {
	switch {
	case length <= 0:
		length = 10
	case length > MaxSparklineLength:
		length = MaxSparklineLength
	}
	return &Sparkline{
		Enabled:     enabled,
		Logarithmic: logarithmic,
		data:        make([]uint64, length),
	}
}

// Len returns the window length
func (s *Sparkline) Len() int {
	return len(s.data)
}

// Push drops the oldest sample and appends v. Disabled sparklines ignore it.
func (s *Sparkline) Push(v uint64) {
	if !s.Enabled {
		return
	}
	copy(s.data, s.data[1:])
	s.data[len(s.data)-1] = v
}

// Samples returns a copy of the window, oldest first.
func (s *Sparkline) Samples() []uint64 {
	out := make([]uint64, len(s.data))
	copy(out, s.data)
	return out
}

// String renders the window. A disabled sparkline, or one whose samples are
// all zero, renders as blanks of the window length.
func (s *Sparkline) String() string {
	if !s.Enabled {
		return strings.Repeat(" ", len(s.data))
	}

	var max uint64
	for _, v := range s.data {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return strings.Repeat(" ", len(s.data))
	}

	top := len(sparkBlocks) - 1
	var b strings.Builder
	for _, v := range s.data {
		if v == 0 {
			b.WriteRune(' ')
			continue
		}
		var norm float64
		switch {
		case !s.Logarithmic:
			norm = float64(v) / float64(max)
		case max == 1:
			norm = 1
		default:
			norm = math.Log10(float64(v)) / math.Log10(float64(max))
		}
		idx := int(norm * float64(top))
		if idx > top {
			idx = top
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}
