package engine

import "fmt"

// Placement positions one card. Offset is in pixels from the hand's center
// line; Row is 0 unless the layout wraps.
type Placement struct {
	Row    int     `json:"row"`
	Offset float64 `json:"offset"`
	Z      int     `json:"z"`
}

// HandLayout places n cards. active is the selected or auto-selected index,
// or -1.
type HandLayout interface {
	Name() string
	Place(n, active int, compact bool) []Placement
}

// RowLayout lays cards out flat and wraps into two rows at Threshold cards.
type RowLayout struct {
	Threshold int
}

func (RowLayout) Name() string { return "rows" }

func (l RowLayout) Place(n, _ int, _ bool) []Placement {
	threshold := l.Threshold
	if threshold <= 0 {
		threshold = 8
	}
	perRow := n
	if n >= threshold {
		perRow = (n + 1) / 2
	}

	out := make([]Placement, n)
	for i := range out {
		out[i] = Placement{Z: i + 1}
		if perRow > 0 {
			out[i].Row = i / perRow
		}
	}
	return out
}

// FanMetrics are in pixels.
type FanMetrics struct {
	Overlap   float64
	CardWidth float64
	Shift     float64
}

// FanLayout centers an overlapping fan. The active card is raised and its
// neighbours are pushed apart by Shift.
type FanLayout struct {
	Regular FanMetrics
	Compact FanMetrics
}

func DefaultFanLayout() FanLayout {
	return FanLayout{
		Regular: FanMetrics{Overlap: 60, CardWidth: 120, Shift: 30},
		Compact: FanMetrics{Overlap: 40, CardWidth: 80, Shift: 20},
	}
}

func (FanLayout) Name() string { return "fan" }

func (l FanLayout) Place(n, active int, compact bool) []Placement {
	if n == 0 {
		return nil
	}
	m := l.Regular
	if compact {
		m = l.Compact
	}

	total := float64(n-1)*m.Overlap + m.CardWidth
	start := -total / 2

	out := make([]Placement, n)
	for i := range out {
		off := start + float64(i)*m.Overlap
		z := i + 1
		if active >= 0 && active < n {
			switch {
			case i < active:
				off -= m.Shift
			case i > active:
				off += m.Shift
			default:
				z = activeZ
			}
		}
		out[i] = Placement{Offset: off, Z: z}
	}
	return out
}

const activeZ = 102

// LayoutByName resolves the --layout option.
func LayoutByName(name string) (HandLayout, error) {
	switch name {
	case "", "rows":
		return RowLayout{Threshold: 8}, nil
	case "fan":
		return DefaultFanLayout(), nil
	}
	return nil, fmt.Errorf("unknown hand layout %q", name)
}
