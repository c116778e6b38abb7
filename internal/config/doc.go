// Package config handles configuration loading, parsing, and validation
// from a .env file, an optional config.yaml and TASKFLOW_ prefixed
// environment variables. It provides type-safe access to application
// settings while keeping configuration details separate from business logic.
package config
