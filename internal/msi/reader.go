package msi

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/deploy-kit/internal/logger"
)

// Property is a single named metadata value read from a package.
type Property struct {
	// Name is one of the standard property names.
	Name string
	// Value is the string stored in the package. ProductCode values are
	// normalized to the canonical braced upper-case form.
	Value string
}

// Record is the metadata read from one package file.
// Properties preserve the order in which they were requested.
type Record struct {
	// Path is the resolved absolute path of the package file.
	Path string
	// Properties holds the requested values in request order.
	Properties []Property
	// Err is set when the file could not be read; the remaining
	// fields are then incomplete.
	Err error
}

// Value returns the named property value and whether it is present.
func (r *Record) Value(name string) (string, bool) {
	for _, p := range r.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}

	return "", false
}

// MarshalYAML renders the record as a mapping with the path first and the
// properties following in request order.
func (r Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	appendPair := func(key, value string) *yaml.Node {
		valueNode := &yaml.Node{Kind: yaml.ScalarNode, Value: value}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			valueNode,
		)

		return valueNode
	}

	appendPair("path", r.Path)

	for _, p := range r.Properties {
		valueNode := appendPair(p.Name, p.Value)

		// Annotate the language identifier with its locale name so the
		// output stays parseable while remaining readable.
		if p.Name == PropertyProductLanguage {
			if name := LanguageName(p.Value); name != p.Value {
				valueNode.LineComment = name
			}
		}
	}

	return node, nil
}

// Reader queries package metadata through an installer engine.
type Reader struct {
	engine Engine
}

// NewReader returns a Reader backed by the provided engine.
// The caller keeps ownership of the engine and closes it after the batch.
func NewReader(engine Engine) *Reader {
	return &Reader{engine: engine}
}

// Read produces one Record per path, strictly in input order. The requested
// property names default to the full standard set and are validated up front.
// Per-file failures land in the record's Err field and never abort siblings.
func (r *Reader) Read(ctx context.Context, paths, names []string) ([]Record, error) {
	names, err := ValidateProperties(names)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(paths))
	for _, path := range paths {
		records = append(records, r.readOne(ctx, path, names))
	}

	return records, nil
}

// readOne resolves and queries a single package file.
func (r *Reader) readOne(ctx context.Context, path string, names []string) Record {
	record := Record{Path: path}

	absolute, err := filepath.Abs(path)
	if err != nil {
		record.Err = fmt.Errorf("resolve %s: %w", path, err)
		return record
	}

	record.Path = absolute

	if _, err = os.Stat(absolute); err != nil {
		record.Err = fmt.Errorf("package file: %w", err)
		return record
	}

	database, err := r.engine.Open(absolute)
	if err != nil {
		record.Err = err
		return record
	}

	// Release session handles on every exit path.
	defer func() {
		if closeErr := database.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close package database", "path", absolute, "error", closeErr)
		}
	}()

	logger.DebugKV(ctx, "Reading package metadata", "path", absolute, "properties", len(names))

	for _, name := range names {
		value, err := database.Property(name)
		if err != nil {
			record.Err = err
			return record
		}

		if name == PropertyProductCode {
			normalized, normErr := NormalizeProductCode(value)
			if normErr != nil {
				logger.WarnKV(ctx, "Package carries a malformed product code",
					"path", absolute, "value", value, "error", normErr)
			} else {
				value = normalized
			}
		}

		record.Properties = append(record.Properties, Property{Name: name, Value: value})
	}

	return record
}
