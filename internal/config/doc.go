// Package config centralizes configuration and filesystem layout for the
// survey cleaning pipeline.
//
// Configuration is layered: compiled defaults, then an optional config.yaml
// next to the executable, then SURVEY_* environment variables (with .env
// support for local runs). All file paths resolve relative to the executable
// directory via GetPaths, never the working directory, so the same binaries
// run identically from a shell, a scheduler, or a file manager; the
// SURVEY_BASE_DIR variable relocates the whole tree for tests and
// installations with different root conventions.
package config
