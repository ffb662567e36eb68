// Package provider holds the clients for the external services Eternal AI
// delegates to: geocoding, Vedic astrology (Vedastro), numerology
// (RapidAPI) and the hosted language models (OpenAI compatible and Gemini).
//
// REST clients are built on resty and share a RateLimiter per upstream.
// A 429 answer records a retry-after window that later calls wait out.
//
// Non-2xx answers surface as *UpstreamError; StatusCode extracts the HTTP
// status from a wrapped error.
package provider
