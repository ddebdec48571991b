package inventory

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// placeholderPatterns are the template markers the provisioning step leaves
// behind for the operator to substitute. Bracketed, case-sensitive.
var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`<BASTION_IP>`),
	regexp.MustCompile(`<MASTER\d+_IP>`),
	regexp.MustCompile(`<WORKER\d+_IP>`),
	regexp.MustCompile(`<BASTION_HOSTNAME>`),
	regexp.MustCompile(`<MASTER\d+_HOSTNAME>`),
	regexp.MustCompile(`<WORKER\d+_HOSTNAME>`),
	regexp.MustCompile(`<SSH_USER>`),
	regexp.MustCompile(`<SSH_KEY_NAME>`),
	regexp.MustCompile(`<WORKER\d+_MGMT_IP>`),
	regexp.MustCompile(`<WORKER\d+_DATA_IP>`),
}

// Placeholder records one string leaf still holding unresolved template
// markers.
type Placeholder struct {
	Path     string
	Value    string
	Patterns []string
}

// FindPlaceholders walks the whole document in document order and collects
// every string leaf matching a placeholder pattern. It is a pure scan: no
// early exit, no side effects.
func FindPlaceholders(document *Document) []Placeholder {
	var found []Placeholder
	scanPlaceholders(document.Root(), "", &found)
	return found
}

func scanPlaceholders(node *yaml.Node, path string, found *[]Placeholder) {
	node = resolveAlias(node)
	if node == nil {
		return
	}

	switch node.Kind {
	case yaml.MappingNode:
		for index := 0; index+1 < len(node.Content); index += 2 {
			key := node.Content[index].Value
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			scanPlaceholders(node.Content[index+1], childPath, found)
		}
	case yaml.SequenceNode:
		for index, item := range node.Content {
			childPath := fmt.Sprintf("%s[%d]", path, index)
			scanPlaceholders(item, childPath, found)
		}
	case yaml.ScalarNode:
		value, ok := scalarString(node)
		if !ok {
			return
		}
		var matched []string
		for _, pattern := range placeholderPatterns {
			if pattern.MatchString(value) {
				matched = append(matched, pattern.String())
			}
		}
		if len(matched) > 0 {
			*found = append(*found, Placeholder{Path: path, Value: value, Patterns: matched})
		}
	}
}
