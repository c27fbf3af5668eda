package report

import "errors"

// ErrNoSymbols is returned when a report is requested for nothing
var ErrNoSymbols = errors.New("no symbols to report")
