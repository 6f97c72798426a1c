// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient-based optimizers: SGD, Adam, and RMSprop.
//
// Optimizers are pure update rules plus per-parameter running statistics.
// State is keyed by (layer index, parameter kind) rather than by tensor
// shape, so two layers that happen to share a shape never collide. State
// persists across calls within a training session; Reset clears it when the
// optimizer type changes or training restarts.
//
// Each optimizer also exposes display metadata (Name, Formula) consumed by
// the step engine's computation-detail view.
package optim
