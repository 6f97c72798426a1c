// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package expr evaluates small user-typed math expressions of one variable
// and derives calculus artifacts from them numerically.
//
// Expressions support the operators + - * / ^ (with ^ right-associative),
// parentheses, unary minus, implicit multiplication ("2x", "3(x+1)",
// "(x+1)(x-1)"), a table of math and activation functions (sin, sqrt, ln,
// relu, sigmoid, ...), the constants pi and e, free parameters, and
// references to other named expressions.
//
// Evaluation never panics or errors on bad math: any non-finite or missing
// value makes the result "undefined", reported as ok == false. Plotting
// code skips undefined sample points rather than treating them as zero.
// Only malformed syntax is reported as a parse error, and the convenience
// entry point Evaluate folds even that into "undefined".
//
// A Graph holds labeled expressions (y1, y2, ...) that may reference each
// other; EvalAll resolves the references in dependency order. Cycles are
// broken silently rather than reported.
//
// The calculus helpers (Derivative, Integral, FindRoots, ...) use finite
// differences, Simpson's rule, and scan-plus-bisection. They are
// approximate and density-dependent: features closer together than the scan
// step can be missed.
package expr
