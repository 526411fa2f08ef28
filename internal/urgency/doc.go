// Package urgency is the classification engine for support email triage.
// It defines the Classifier (cache, LLM call, normalization, fallback), the
// Provider and Cache interfaces it depends on, and the Result model.
package urgency
