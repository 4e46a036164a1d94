// Package generation defines the boundary between the application and
// external LLM services that write example sentences for vocabulary items.
package generation
