package domain

import "time"

// TranslationResult represents the outcome of translating one source file
type TranslationResult struct {
	Source        string        // Path to the annotated source file
	Target        string        // Path of the generated file
	Success       bool          // Whether the target was written
	SuiteName     string        // Resolved suite-factory name
	WrapModule    string        // Generated wrapper module name
	Tests         []string      // Declared test names in declaration order
	Registrations int           // Number of registration calls emitted
	Error         error         // Error if translation failed
	Duration      time.Duration // Time taken to translate
}

// ManifestMeta contains metadata about a batch run
type ManifestMeta struct {
	RunID           string  `json:"run_id"`
	TotalFiles      int     `json:"total_files"`
	TranslatedFiles int     `json:"translated_files"`
	FailedFiles     int     `json:"failed_files"`
	TotalTests      int     `json:"total_tests"`
	Registrations   int     `json:"registrations"`
	Markers         bool    `json:"markers"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Workers         int     `json:"workers"`
	Timestamp       string  `json:"timestamp"`
}

// ManifestEntry records one translated file
type ManifestEntry struct {
	Source        string   `json:"source"`
	Target        string   `json:"target"`
	SuiteName     string   `json:"suite_name"`
	WrapModule    string   `json:"wrap_module"`
	Tests         []string `json:"tests"`
	Registrations int      `json:"registrations"`
}

// Manifest is the complete output structure of a batch run
type Manifest struct {
	Meta     ManifestMeta         `json:"meta"`
	Files    []ManifestEntry      `json:"files"`
	Failures []TranslationFailure `json:"failures"`
}
