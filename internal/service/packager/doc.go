// Package packager implements the deploy-package workflow: it checksums the
// configured build artifacts, writes a YAML manifest, bundles everything into
// a versioned zip archive and optionally signs the archive with an OpenPGP key.
package packager
