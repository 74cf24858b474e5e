package history

import "time"

// Point is one observation in a historical price series.
type Point struct {
	TS    time.Time
	Price float64
}

// XY is a plot-plane coordinate. The origin is top-left, matching the SVG and
// chart surfaces the output is drawn on.
type XY struct {
	X float64
	Y float64
}

// Plot is a price series projected into a bounded chart surface.
type Plot struct {
	// OK is false when the series has fewer than two points. Callers render
	// a placeholder instead of a line in that case.
	OK bool
	// Line is the normalized polyline, one coordinate per input point.
	Line []XY
	// Fill is Line closed along the bottom edge, for area fills.
	Fill []XY
	// Low, High, and Current are taken verbatim from the input series so the
	// numbers shown next to the chart never drift from the plotted data.
	Low     float64
	High    float64
	Current float64
}

// Normalize projects points onto a width x height surface with the given
// vertical padding. X spreads points evenly across the width; Y is inverted
// because prices grow upward while plot coordinates grow downward.
//
// A flat series (max == min) is given a unit range so it renders as a
// horizontal line instead of dividing by zero.
func Normalize(points []Point, width, height, padding float64) Plot {
	if len(points) < 2 {
		return Plot{}
	}

	low, high := points[0].Price, points[0].Price
	for _, p := range points[1:] {
		if p.Price < low {
			low = p.Price
		}
		if p.Price > high {
			high = p.Price
		}
	}

	span := high - low
	if span == 0 {
		span = 1
	}

	usable := height - 2*padding
	step := width / float64(len(points)-1)

	line := make([]XY, len(points))
	for i, p := range points {
		norm := (p.Price - low) / span
		line[i] = XY{
			X: float64(i) * step,
			Y: height - padding - norm*usable,
		}
	}

	fill := make([]XY, 0, len(line)+2)
	fill = append(fill, line...)
	fill = append(fill, XY{X: width, Y: height}, XY{X: 0, Y: height})

	return Plot{
		OK:      true,
		Line:    line,
		Fill:    fill,
		Low:     low,
		High:    high,
		Current: points[len(points)-1].Price,
	}
}
