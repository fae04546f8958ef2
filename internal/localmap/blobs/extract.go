package blobs

import (
	"github.com/banshee-data/localnav/internal/config"
	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap/calib"
	"github.com/banshee-data/localnav/internal/localmap/sensed"
)

// ObjectPoints holds the ground positions of the objects seen this tick,
// indexed by colour.
type ObjectPoints [sensed.NumPuckColours][]geom.Point

// Total returns the number of points across all colours.
func (o ObjectPoints) Total() int {
	n := 0
	for k := range o {
		n += len(o[k])
	}
	return n
}

// Held is the carrying state derived from the hold region each tick.
type Held struct {
	Carrying bool
	Colour   int        // colour index; -1 when not carrying
	Point    geom.Point // ground position of the held object
}

// NotHeld is the Held value for an empty gripper.
var NotHeld = Held{Colour: -1}

// Params configures extraction.
type Params struct {
	// CarryThresholdLo is the fill ratio needed to keep carrying the colour
	// carried last tick.
	CarryThresholdLo float64
	// CarryThresholdHi is the fill ratio needed to start carrying.
	CarryThresholdHi float64
	// ObjectDiameter is the distance within which another blob is treated as
	// a fragment of the held object.
	ObjectDiameter float64
}

// DefaultParams returns the built-in extraction parameters.
func DefaultParams() Params {
	return ParamsFromTuning(config.EmptyTuningConfig())
}

// ParamsFromTuning reads extraction parameters from cfg.
func ParamsFromTuning(cfg *config.TuningConfig) Params {
	return Params{
		CarryThresholdLo: cfg.GetCarryThresholdLo(),
		CarryThresholdHi: cfg.GetCarryThresholdHi(),
		ObjectDiameter:   cfg.GetObjectDiameter(),
	}
}

// Extractor turns frames into object points and held state.
type Extractor struct {
	calib  *calib.Calibration
	params Params
	finder Finder
}

// NewExtractor returns an Extractor for frames produced under c.
func NewExtractor(c *calib.Calibration, p Params) *Extractor {
	return &Extractor{calib: c, params: p}
}

// candidate is a blob that survived the range filter.
type candidate struct {
	blob   Blob
	ground geom.Point
	inHold bool
}

// Extract finds the objects of every colour in f. prev is last tick's held
// state and selects which threshold applies to each colour's hold-region
// blob. The frame must match the calibration's size.
func (e *Extractor) Extract(f *sensed.Frame, prev Held) (ObjectPoints, Held) {
	var pts ObjectPoints
	held := NotHeld
	bestRatio := -1.0

	for k := 0; k < sensed.NumPuckColours; k++ {
		cands := e.candidates(f, sensed.Puck(k))

		hold := -1
		for n, c := range cands {
			if c.inHold && (hold < 0 || c.blob.Area() > cands[hold].blob.Area()) {
				hold = n
			}
		}

		for n, c := range cands {
			if n != hold {
				if c.inHold {
					continue
				}
				if hold >= 0 && geom.Distance(c.ground, cands[hold].ground) < e.params.ObjectDiameter {
					continue
				}
			}
			pts[k] = append(pts[k], c.ground)
		}

		if hold < 0 {
			continue
		}
		ratio := e.fillRatio(cands[hold].blob)
		threshold := e.params.CarryThresholdHi
		if prev.Carrying && prev.Colour == k {
			threshold = e.params.CarryThresholdLo
		}
		if ratio >= threshold && ratio > bestRatio {
			bestRatio = ratio
			held = Held{Carrying: true, Colour: k, Point: cands[hold].ground}
		}
	}

	return pts, held
}

// candidates returns the blobs of class t whose centre pixel is calibrated
// and within the max sensed distance.
func (e *Extractor) candidates(f *sensed.Frame, t sensed.Type) []candidate {
	var out []candidate
	for _, b := range e.finder.Find(f, t) {
		px := e.calib.At(b.Centre())
		if !e.calib.WithinSensed(px) {
			continue
		}
		out = append(out, candidate{blob: b, ground: px.Point(), inHold: px.HoldRegion})
	}
	return out
}

// fillRatio is the area of b relative to the hold region. A blob that spills
// out of the hold region counts in full, so the ratio can exceed 1.
func (e *Extractor) fillRatio(b Blob) float64 {
	total := e.calib.HoldPixelCount()
	if total == 0 {
		return 0
	}
	return float64(b.Area()) / float64(total)
}
