// Package llm provides the OCR and classification collaborators backed by
// language model APIs. It supports Gemini, OpenAI and Anthropic, with retry
// logic, rate limiting and response caching.
package llm
