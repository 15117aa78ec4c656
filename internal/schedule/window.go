package schedule

import (
	"strings"
	"time"

	"treinopp/internal/apperr"
)

// ParseWindow builds a CandidateWindow from RFC 3339 timestamps.
func ParseWindow(start, end, excludeSlotID string) (CandidateWindow, error) {
	s, err := parseTimestamp("start", start)
	if err != nil {
		return CandidateWindow{}, err
	}
	e, err := parseTimestamp("end", end)
	if err != nil {
		return CandidateWindow{}, err
	}

	w := CandidateWindow{Start: s, End: e, ExcludeSlotID: strings.TrimSpace(excludeSlotID)}
	if err := w.Validate(); err != nil {
		return CandidateWindow{}, err
	}
	return w, nil
}

func (w CandidateWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return apperr.WithMessage(apperr.ErrInvalidInput, "start and end are required")
	}
	if !w.Start.Before(w.End) {
		return apperr.WithMessage(apperr.ErrInvalidInput, "start must be before end")
	}
	return nil
}

func parseTimestamp(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, apperr.WithMessage(apperr.ErrInvalidInput, field+" is required")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperr.WithMessage(apperr.ErrInvalidInput, field+" must be an RFC 3339 timestamp")
	}
	return t, nil
}
