// Package inspector implements the deploy-inspect workflow: it reads the
// standard metadata properties out of installer package files and prints one
// YAML record per file, isolating per-file failures from the rest of the batch.
package inspector
