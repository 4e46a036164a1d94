// Package config loads application configuration with viper. Values come
// from built-in defaults, an optional config.yaml and VOCAB_-prefixed
// environment variables, and are checked with validator struct tags.
package config
