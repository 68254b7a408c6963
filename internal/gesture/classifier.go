// Package gesture classifies a single hand's landmarks into a discrete
// gesture symbol using heuristic up/down finger tests.
package gesture

import (
	"github.com/eccker/photoboth/internal/detector"
)

// Symbol is a discrete gesture read from one hand in one frame.
type Symbol string

const (
	// Point is index extended, middle/ring/pinky curled.
	Point Symbol = "point"
	// Peace is index and middle extended, ring/pinky curled.
	Peace Symbol = "peace"
	// Open is all five fingers extended.
	Open Symbol = "open"
	// Fist is all five fingers curled.
	Fist Symbol = "fist"
	// ThumbsUp is thumb and index extended, middle/ring/pinky curled.
	ThumbsUp Symbol = "thumbs_up"
	// Unknown is any pattern not matching a named symbol, and the
	// fail-closed result for malformed observations.
	Unknown Symbol = "unknown"
)

// fingers holds the per-finger extension reading for one hand.
type fingers struct {
	thumb, index, middle, ring, pinky bool
}

// rule pairs a finger-pattern predicate with the symbol it produces.
type rule struct {
	match  func(f fingers) bool
	symbol Symbol
}

// rules is evaluated strictly in order, first match wins. The order is
// load-bearing: several predicates are not mutually exclusive (a hand
// with thumb and index up satisfies both the point and thumbs_up
// patterns, and point wins because it is listed first). Reordering
// changes the reading of ambiguous poses on noisy frames.
var rules = []rule{
	{func(f fingers) bool { return f.index && !f.middle && !f.ring && !f.pinky }, Point},
	{func(f fingers) bool { return f.index && f.middle && !f.ring && !f.pinky }, Peace},
	{func(f fingers) bool { return f.thumb && f.index && f.middle && f.ring && f.pinky }, Open},
	{func(f fingers) bool { return !f.thumb && !f.index && !f.middle && !f.ring && !f.pinky }, Fist},
	{func(f fingers) bool { return f.thumb && f.index && !f.middle && !f.ring && !f.pinky }, ThumbsUp},
}

// Classify maps one hand observation to a gesture symbol. A hand whose
// landmark count is not exactly 21 classifies as Unknown rather than
// failing.
//
// A finger reads as extended when its tip sits above its PIP joint
// (smaller Y in detector space); the thumb uses its tip/IP pair. The
// test assumes fingers roughly vertical relative to the palm, which
// holds for a user facing the camera.
func Classify(hand *detector.HandObservation) Symbol {
	if !hand.Valid() {
		return Unknown
	}

	p := hand.Points
	f := fingers{
		thumb:  p[detector.ThumbTip].Y < p[detector.ThumbIP].Y,
		index:  p[detector.IndexTip].Y < p[detector.IndexPIP].Y,
		middle: p[detector.MiddleTip].Y < p[detector.MiddlePIP].Y,
		ring:   p[detector.RingTip].Y < p[detector.RingPIP].Y,
		pinky:  p[detector.PinkyTip].Y < p[detector.PinkyPIP].Y,
	}

	for _, r := range rules {
		if r.match(f) {
			return r.symbol
		}
	}
	return Unknown
}

// ClassifyAll annotates each hand with its classified symbol and
// returns the set of symbols present in the frame.
func ClassifyAll(hands []detector.HandObservation) []Symbol {
	symbols := make([]Symbol, len(hands))
	for i := range hands {
		symbols[i] = Classify(&hands[i])
		hands[i].Gesture = string(symbols[i])
	}
	return symbols
}

// Contains reports whether any hand in the frame exhibits the symbol.
func Contains(symbols []Symbol, want Symbol) bool {
	for _, s := range symbols {
		if s == want {
			return true
		}
	}
	return false
}
