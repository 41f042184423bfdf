package models

import "time"

// LoadStatus is the loading state of a single year's dataset.
type LoadStatus string

const (
	StatusUnloaded LoadStatus = "unloaded"
	StatusLoading  LoadStatus = "loading"
	StatusLoaded   LoadStatus = "loaded"
	StatusError    LoadStatus = "error"
)

// CanTransition reports whether a year may move from s to next.
//
//	unloaded -> loading -> loaded | error
//	loaded | error -> loading   (refresh or retry)
//	any -> unloaded             (storage cleared)
func (s LoadStatus) CanTransition(next LoadStatus) bool {
	if next == StatusUnloaded {
		return true
	}

	switch s {
	case StatusUnloaded, StatusLoaded, StatusError:
		return next == StatusLoading
	case StatusLoading:
		return next == StatusLoaded || next == StatusError
	default:
		return false
	}
}

// Data sources a year can be loaded from.
const (
	SourceCache  = "cache"
	SourceRemote = "remote"
)

// YearStatus describes the current state of one configured year.
type YearStatus struct {
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	Status      LoadStatus `json:"status"`
	Source      string     `json:"source,omitempty"`
	Error       string     `json:"error,omitempty"`
	Year        Year       `json:"year"`
	Records     int        `json:"records"`
}
