// Package transcription implements the generative model collaborator used for speech
// transcription and narrative feedback. It exposes small capability interfaces so the
// pipeline can be tested with fakes, and a REST client for the Gemini generateContent API
// that bounds concurrency and keeps request statistics. Calls are never retried.
package transcription
