package domain

import "errors"

var (
	// ErrInvalidScope is returned for an unknown scope or a missing scope_id.
	ErrInvalidScope = errors.New("invalid scope")
	// ErrInvalidHorizon is returned when a horizon falls outside [1, 365] days.
	ErrInvalidHorizon = errors.New("invalid horizon")
	// ErrInsufficientData is returned when a series is too short to fit.
	ErrInsufficientData = errors.New("insufficient historical data")
	// ErrNoData is returned when neither forecasts nor history exist for a scope.
	ErrNoData = errors.New("no forecasts or historical data")
	// ErrForecastTimeout is returned when the model fit exceeds its deadline.
	ErrForecastTimeout = errors.New("forecast timed out")
	// ErrPersistenceWrite is returned when forecast points could not be stored.
	ErrPersistenceWrite = errors.New("failed to persist forecast")
	// ErrInvalidFilter is returned for malformed query filters (dates, group_by, period).
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrCalendarUnavailable is returned when holidays are requested directly and the source fails.
	ErrCalendarUnavailable = errors.New("holiday calendar unavailable")
)
