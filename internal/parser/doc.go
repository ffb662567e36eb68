// Package parser turns free-form language model output into structured
// report data.
//
// Model answers are rarely clean JSON. Every parser here is best effort:
// it tries the strict form first, then progressively looser forms, and
// finally falls back to defaults built from keyword heuristics so that a
// report can always be stored.
//
// # JSON Extraction
//
// ExtractJSON tries, in order:
//
//   - the whole text as JSON
//   - the body of a ```json fence
//   - the body of any ``` fence
//   - the first {...} span (shortest, then widest)
//
// # Text Reports
//
// ExtractSection, ProcessWellnessText and ExtractSoulStats read the
// sectioned plain-text reports. SummarizeVedic and SummarizeNumerology
// condense provider data into compact JSON for prompts.
package parser
