// Package inference - Model runtime adapter for image classification.
package inference

import "errors"

// ErrModelLoad reports a malformed model asset or invalid load-time
// configuration (bad output index, zero class count). Fatal to the demo.
var ErrModelLoad = errors.New("model load failed")

// ErrBackendUnavailable reports that the requested accelerated backend is
// not supported on the current platform. Recoverable: loading falls back
// to the generic backend and logs a warning.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ErrReadback reports a failed or abandoned asynchronous readback.
// Callers retain their previous decoded result; the frame loop continues.
var ErrReadback = errors.New("readback failed")
