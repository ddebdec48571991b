// Package inventory loads and validates the declarative host inventory
// consumed by the provisioning automation. The document is kept as a
// yaml.Node tree rather than a map so that key iteration follows document
// order and a key present with a null value stays distinguishable from an
// absent key.
package inventory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Severity classifies a validation finding.
type Severity int

const (
	// SeverityError blocks the run.
	SeverityError Severity = iota
	// SeverityWarning is reported but does not fail the run by itself.
	SeverityWarning
)

// Finding is one validation diagnostic tied to a location in the document.
type Finding struct {
	Path     string
	Message  string
	Severity Severity
}

func (finding Finding) String() string {
	return finding.Message
}

// Document is a parsed inventory file.
type Document struct {
	root *yaml.Node
}

// Root returns the top-level mapping node, or nil for an empty document.
func (document *Document) Root() *yaml.Node {
	return document.root
}

// Load reads and parses an inventory file. It never returns a partial
// document: a missing file or malformed YAML yields only an error.
func Load(path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("inventory file not found: %s", path)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- inventory path is explicit user input
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file %s: %w", path, err)
	}

	var parsed yaml.Node
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("invalid YAML syntax in %s: %w", path, err)
	}

	document := &Document{}
	if parsed.Kind == yaml.DocumentNode && len(parsed.Content) > 0 {
		document.root = resolveAlias(parsed.Content[0])
	}
	return document, nil
}

// resolveAlias follows an alias node to its anchor target.
func resolveAlias(node *yaml.Node) *yaml.Node {
	if node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		return node.Alias
	}
	return node
}

// mappingValue looks up key in a mapping node, preserving the distinction
// between "absent" (ok == false) and "present with a null value".
func mappingValue(node *yaml.Node, key string) (*yaml.Node, bool) {
	node = resolveAlias(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, false
	}
	for index := 0; index+1 < len(node.Content); index += 2 {
		if node.Content[index].Value == key {
			return resolveAlias(node.Content[index+1]), true
		}
	}
	return nil, false
}

// mappingPairs yields the key/value pairs of a mapping node in document
// order. Non-mapping nodes yield nothing.
func mappingPairs(node *yaml.Node) [][2]*yaml.Node {
	node = resolveAlias(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	pairs := make([][2]*yaml.Node, 0, len(node.Content)/2)
	for index := 0; index+1 < len(node.Content); index += 2 {
		pairs = append(pairs, [2]*yaml.Node{node.Content[index], resolveAlias(node.Content[index+1])})
	}
	return pairs
}

// isEmptyCollection reports whether node is null or a mapping/sequence with
// no entries.
func isEmptyCollection(node *yaml.Node) bool {
	node = resolveAlias(node)
	if node == nil {
		return true
	}
	switch node.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		return len(node.Content) == 0
	case yaml.ScalarNode:
		return node.Tag == "!!null"
	}
	return false
}

// scalarString returns the string value of a string-typed scalar node.
func scalarString(node *yaml.Node) (string, bool) {
	node = resolveAlias(node)
	if node == nil || node.Kind != yaml.ScalarNode || node.Tag != "!!str" {
		return "", false
	}
	return node.Value, true
}
