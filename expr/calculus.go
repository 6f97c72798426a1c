// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package expr

import (
	"math"

	"github.com/pkg/errors"
)

const (
	derivativeStep = 1e-5
	simpsonN       = 1000
	bisectTol      = 1e-6
	bisectMaxIter  = 100
	scanPoints     = 1000
	dedupTol       = 1e-4
	inflectionTol  = 1e-3
)

// Func is a numeric function of x. ok is false where the function is
// undefined; scanning routines skip such points.
type Func func(x float64) (float64, bool)

// FuncOf binds an expression text with fixed parameters and dependency
// values into a Func. A parse failure yields a Func that is undefined
// everywhere.
func FuncOf(text string, params, deps map[string]float64) Func {
	parsed, err := Parse(text)
	if err != nil {
		return func(float64) (float64, bool) { return 0, false }
	}
	return func(x float64) (float64, bool) {
		return parsed.Eval(x, params, deps)
	}
}

// Derivative estimates f'(x) by the central finite difference with step
// h = 1e-5. ok is false when f is undefined at either sample.
func Derivative(f Func, x float64) (float64, bool) {
	hi, ok := f(x + derivativeStep)
	if !ok {
		return 0, false
	}
	lo, ok := f(x - derivativeStep)
	if !ok {
		return 0, false
	}
	d := (hi - lo) / (2 * derivativeStep)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, false
	}
	return d, true
}

// secondDerivative estimates f''(x) by the central second difference.
func secondDerivative(f Func, x float64) (float64, bool) {
	h := derivativeStep
	c, ok := f(x)
	if !ok {
		return 0, false
	}
	hi, ok := f(x + h)
	if !ok {
		return 0, false
	}
	lo, ok := f(x - h)
	if !ok {
		return 0, false
	}
	d := (hi - 2*c + lo) / (h * h)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, false
	}
	return d, true
}

// Integral computes the definite integral of f over [xMin, xMax] by the
// composite Simpson's rule with 1000 subintervals. It requires xMin < xMax.
// The result is undefined (ok false) when any sample point is.
func Integral(f Func, xMin, xMax float64) (float64, bool, error) {
	if xMin >= xMax {
		return 0, false, errors.Errorf("integral requires xMin < xMax, got [%g, %g]", xMin, xMax)
	}
	h := (xMax - xMin) / float64(simpsonN)
	sum, ok := f(xMin)
	if !ok {
		return 0, false, nil
	}
	last, ok := f(xMax)
	if !ok {
		return 0, false, nil
	}
	sum += last
	for i := 1; i < simpsonN; i++ {
		v, ok := f(xMin + float64(i)*h)
		if !ok {
			return 0, false, nil
		}
		if i%2 == 1 {
			sum += 4 * v
		} else {
			sum += 2 * v
		}
	}
	result := sum * h / 3
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, false, nil
	}
	return result, true, nil
}

// bisect refines a sign change of f bracketed by [lo, hi] down to a
// tolerance of 1e-6, giving up after 100 iterations.
func bisect(f Func, lo, hi float64) (float64, bool) {
	flo, ok := f(lo)
	if !ok {
		return 0, false
	}
	for i := 0; i < bisectMaxIter && hi-lo > bisectTol; i++ {
		mid := (lo + hi) / 2
		fmid, ok := f(mid)
		if !ok {
			return 0, false
		}
		if (flo < 0) == (fmid < 0) {
			lo, flo = mid, fmid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, true
}

// appendDeduped appends x unless it is within tolerance of an existing
// entry. Scanning adjacent intervals can re-detect the same zero crossing.
func appendDeduped(xs []float64, x float64) []float64 {
	for _, prev := range xs {
		if math.Abs(prev-x) < dedupTol {
			return xs
		}
	}
	return append(xs, x)
}

// scanSignChanges walks [xMin, xMax] at a fixed step, and for every
// interval where f changes sign, refines the crossing by bisection.
// Crossings closer together than the scan step can be missed; that
// density dependence is inherent to the method.
func scanSignChanges(f Func, xMin, xMax float64) []float64 {
	var out []float64
	step := (xMax - xMin) / scanPoints
	if step <= 0 {
		return nil
	}
	prevX := xMin
	prevV, prevOK := f(xMin)
	for i := 1; i <= scanPoints; i++ {
		x := xMin + float64(i)*step
		v, ok := f(x)
		if prevOK && ok {
			switch {
			case prevV == 0:
				out = appendDeduped(out, prevX)
			case (prevV < 0) != (v < 0):
				if root, ok := bisect(f, prevX, x); ok {
					out = appendDeduped(out, root)
				}
			}
		}
		prevX, prevV, prevOK = x, v, ok
	}
	if prevOK && prevV == 0 {
		out = appendDeduped(out, prevX)
	}
	return out
}

// FindRoots locates the zeros of f on [xMin, xMax].
func FindRoots(f Func, xMin, xMax float64) []float64 {
	return scanSignChanges(f, xMin, xMax)
}

// FindIntersections locates the x positions where f and g cross, by finding
// the roots of their difference.
func FindIntersections(f, g Func, xMin, xMax float64) []float64 {
	diff := func(x float64) (float64, bool) {
		fv, ok := f(x)
		if !ok {
			return 0, false
		}
		gv, ok := g(x)
		if !ok {
			return 0, false
		}
		return fv - gv, true
	}
	return scanSignChanges(diff, xMin, xMax)
}

// CriticalKind classifies a critical point.
type CriticalKind string

// Critical point classifications.
const (
	LocalMin   CriticalKind = "min"
	LocalMax   CriticalKind = "max"
	Inflection CriticalKind = "inflection"
)

// CriticalPoint is a location where f' crosses zero, classified by the
// local shape of f.
type CriticalPoint struct {
	X    float64
	Y    float64
	Kind CriticalKind
}

func derivFunc(f Func) Func {
	return func(x float64) (float64, bool) { return Derivative(f, x) }
}

// FindMinMax locates the local extrema of f on [xMin, xMax]: zeros of the
// derivative, classified by the derivative's sign immediately before and
// after the crossing. Derivative zeros that are not sign changes (saddle
// flats) are ignored here; FindCriticalPoints reports them.
func FindMinMax(f Func, xMin, xMax float64) []CriticalPoint {
	df := derivFunc(f)
	var out []CriticalPoint
	for _, x := range scanSignChanges(df, xMin, xMax) {
		before, okB := df(x - dedupTol)
		after, okA := df(x + dedupTol)
		if !okB || !okA {
			continue
		}
		y, ok := f(x)
		if !ok {
			continue
		}
		switch {
		case before < 0 && after > 0:
			out = append(out, CriticalPoint{X: x, Y: y, Kind: LocalMin})
		case before > 0 && after < 0:
			out = append(out, CriticalPoint{X: x, Y: y, Kind: LocalMax})
		}
	}
	return out
}

// FindCriticalPoints locates the zeros of f' on [xMin, xMax] and classifies
// each by the second finite-difference derivative: near-zero means an
// inflection, otherwise its sign separates minima from maxima.
func FindCriticalPoints(f Func, xMin, xMax float64) []CriticalPoint {
	df := derivFunc(f)
	var out []CriticalPoint
	for _, x := range scanSignChanges(df, xMin, xMax) {
		y, ok := f(x)
		if !ok {
			continue
		}
		d2, ok := secondDerivative(f, x)
		if !ok {
			continue
		}
		kind := Inflection
		switch {
		case d2 > inflectionTol:
			kind = LocalMin
		case d2 < -inflectionTol:
			kind = LocalMax
		}
		out = append(out, CriticalPoint{X: x, Y: y, Kind: kind})
	}
	return out
}
