package config

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saiset-co/sai-handle/types"
)

// Parser answers dotted-path lookups such as "handlers.metrics.weight"
// against a loaded Config, using the YAML key names.
type Parser struct {
	data map[string]interface{}
}

func NewParser(config *types.Config) (*Parser, error) {
	if config == nil {
		return nil, types.ErrConfigIsNil
	}

	raw, err := yaml.Marshal(config)
	if err != nil {
		return nil, types.WrapError(err, "failed to marshal config")
	}

	parser := &Parser{data: make(map[string]interface{})}
	if err = yaml.Unmarshal(raw, &parser.data); err != nil {
		return nil, types.WrapError(err, "failed to index config")
	}

	return parser, nil
}

func (p *Parser) GetValue(path string, defaultValue interface{}) interface{} {
	if value, ok := p.lookup(path); ok {
		return value
	}
	return defaultValue
}

// GetAs decodes the subtree at path into target.
func (p *Parser) GetAs(path string, target interface{}) error {
	value, ok := p.lookup(path)
	if !ok {
		return types.Errorf(types.ErrConfigNotFound, "path: %s", path)
	}

	raw, err := yaml.Marshal(value)
	if err != nil {
		return types.WrapError(err, "failed to marshal config value")
	}

	if err = yaml.Unmarshal(raw, target); err != nil {
		return types.Errorf(types.ErrConfigParseFailed, "path %s: %v", path, err)
	}

	return nil
}

// Paths lists every leaf path in sorted order.
func (p *Parser) Paths() []string {
	var paths []string
	collectPaths("", p.data, &paths)
	sort.Strings(paths)
	return paths
}

func (p *Parser) lookup(path string) (interface{}, bool) {
	if path == "" {
		return p.data, true
	}

	var current interface{} = p.data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}

		if current, ok = m[part]; !ok || current == nil {
			return nil, false
		}
	}

	return current, true
}

func collectPaths(prefix string, value interface{}, paths *[]string) {
	m, ok := value.(map[string]interface{})
	if !ok || len(m) == 0 {
		if prefix != "" {
			*paths = append(*paths, prefix)
		}
		return
	}

	for key, child := range m {
		next := key
		if prefix != "" {
			next = prefix + "." + key
		}
		collectPaths(next, child, paths)
	}
}
