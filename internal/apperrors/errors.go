package apperrors

import "errors"

// ErrNoData indicates that no rate data exists for the requested date or
// range. This is a normal outcome for dates before the first publication,
// not a fault.
var ErrNoData = errors.New("no data available for the requested parameters")

// ErrInvalidCurrency indicates an unknown or unconvertible currency code,
// typically a requested base with no stored quote.
var ErrInvalidCurrency = errors.New("invalid currency")

// ErrInvalidDate indicates a date or range that could not be parsed, or a
// range whose start lies after its end.
var ErrInvalidDate = errors.New("invalid date")

// ErrUnknownProvider indicates a provider name that is not registered.
var ErrUnknownProvider = errors.New("unknown provider")

// ErrTransport indicates a failed upstream request (network error or
// non-2xx status).
var ErrTransport = errors.New("upstream request failed")

// ErrParse indicates an upstream payload that could not be decoded or was
// missing data required for normalization.
var ErrParse = errors.New("failed to parse provider data")
