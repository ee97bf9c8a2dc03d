package timesheet

import "fmt"

// Limits mirror the ranges offered to users when tuning a run.
const (
	MinChunkMinutes = 5
	MaxChunkMinutes = 120
	MinWordsLower   = 5
	MinWordsUpper   = 50
	MinCreativity   = 0.1
	MaxCreativity   = 1.0
)

// Settings holds the knobs of one processing run. It is treated as
// immutable once a run starts.
type Settings struct {
	MaxChunkMinutes int     `json:"max_chunk_minutes" toml:"max_chunk_minutes"`
	MinWordsSplit   int     `json:"min_words_split" toml:"min_words_split"`
	IgnoreMeetings  bool    `json:"ignore_meetings" toml:"ignore_meetings"`
	FillGaps        bool    `json:"fill_gaps" toml:"fill_gaps"`
	WorkStart       string  `json:"work_start" toml:"work_start"`
	WorkEnd         string  `json:"work_end" toml:"work_end"`
	Creativity      float64 `json:"creativity" toml:"creativity"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		MaxChunkMinutes: 15,
		MinWordsSplit:   10,
		IgnoreMeetings:  true,
		FillGaps:        true,
		WorkStart:       "09:00",
		WorkEnd:         "17:00",
		Creativity:      0.7,
	}
}

// FieldError describes an invalid setting or mapping field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the settings against their allowed ranges.
func (s Settings) Validate() error {
	if s.MaxChunkMinutes < MinChunkMinutes || s.MaxChunkMinutes > MaxChunkMinutes {
		return &FieldError{Field: "max_chunk_minutes", Message: fmt.Sprintf("must be between %d and %d", MinChunkMinutes, MaxChunkMinutes)}
	}
	if s.MinWordsSplit < MinWordsLower || s.MinWordsSplit > MinWordsUpper {
		return &FieldError{Field: "min_words_split", Message: fmt.Sprintf("must be between %d and %d", MinWordsLower, MinWordsUpper)}
	}
	if s.Creativity < MinCreativity || s.Creativity > MaxCreativity {
		return &FieldError{Field: "creativity", Message: fmt.Sprintf("must be between %.1f and %.1f", MinCreativity, MaxCreativity)}
	}
	start, ok := ParseClock(s.WorkStart)
	if !ok {
		return &FieldError{Field: "work_start", Message: "must be HH:MM"}
	}
	end, ok := ParseClock(s.WorkEnd)
	if !ok {
		return &FieldError{Field: "work_end", Message: "must be HH:MM"}
	}
	if end <= start {
		return &FieldError{Field: "work_end", Message: "must be after work_start"}
	}
	return nil
}
