// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package expr

import "math"

// builtins maps recognized function names to their implementations.
// Alongside the standard math functions, the activation functions the
// network package uses are available so users can plot them directly.
var builtins = map[string]func(float64) float64{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sqrt":  math.Sqrt,
	"abs":   math.Abs,
	"log":   math.Log10,
	"ln":    math.Log,
	"exp":   math.Exp,
	"floor": math.Floor,
	"ceil":  math.Ceil,

	"relu": func(x float64) float64 {
		if x > 0 {
			return x
		}
		return 0
	},
	"sigmoid": func(x float64) float64 {
		return 1.0 / (1.0 + math.Exp(-x))
	},
	"tanh":   math.Tanh,
	"linear": func(x float64) float64 { return x },
	"softplus": func(x float64) float64 {
		return math.Log(1.0 + math.Exp(x))
	},
	"leakyrelu": func(x float64) float64 {
		if x > 0 {
			return x
		}
		return 0.1 * x
	},
}

// constants are identifier-like values recognized during evaluation.
var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// IsBuiltin reports whether name is a recognized function or constant, and
// therefore never a free parameter.
func IsBuiltin(name string) bool {
	if _, ok := builtins[name]; ok {
		return true
	}
	_, ok := constants[name]
	return ok
}
