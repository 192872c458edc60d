package model

// ValidationResult aggregates everything the chain validator found in one
// pass. Errors block execution; warnings never do.
type ValidationResult struct {
	IsValid           bool     `json:"is_valid" yaml:"is_valid"`
	Errors            []string `json:"errors" yaml:"errors"`
	Warnings          []string `json:"warnings" yaml:"warnings"`
	MissingPlugins    []string `json:"missing_plugins" yaml:"missing_plugins"`
	CycleDetected     bool     `json:"cycle_detected" yaml:"cycle_detected"`
	DisconnectedNodes []string `json:"disconnected_nodes" yaml:"disconnected_nodes"`
}

// NewValidationResult returns an empty result with non-nil collections so
// serialized output always carries arrays.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Errors:            []string{},
		Warnings:          []string{},
		MissingPlugins:    []string{},
		DisconnectedNodes: []string{},
	}
}

// AddError records a blocking problem.
func (r *ValidationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddWarning records an advisory problem.
func (r *ValidationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Finalize derives IsValid from the collected errors.
func (r *ValidationResult) Finalize() *ValidationResult {
	r.IsValid = len(r.Errors) == 0
	return r
}
