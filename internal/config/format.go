package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

type fileFormat string

const (
	formatJSON fileFormat = "json"
	formatYAML fileFormat = "yaml"
)

// formatOf picks the decoder from the extension; anything but .yaml/.yml is JSON.
func formatOf(path string) fileFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share the
// strict decoder in Parse.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	doc, err := jsonCompatible(doc, "")
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// jsonCompatible rejects non-string mapping keys; every hwbot key is a name.
func jsonCompatible(v any, at string) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		for k, child := range x {
			c, err := jsonCompatible(child, join(at, k))
			if err != nil {
				return nil, err
			}
			x[k] = c
		}
		return x, nil
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, child := range x {
			name, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%s: key %v is not a string", orRoot(at), k)
			}
			c, err := jsonCompatible(child, join(at, name))
			if err != nil {
				return nil, err
			}
			m[name] = c
		}
		return m, nil
	case []any:
		for i, child := range x {
			c, err := jsonCompatible(child, fmt.Sprintf("%s[%d]", orRoot(at), i))
			if err != nil {
				return nil, err
			}
			x[i] = c
		}
		return x, nil
	default:
		return v, nil
	}
}

func join(at, key string) string {
	if at == "" {
		return key
	}
	return at + "." + key
}

func orRoot(at string) string {
	if at == "" {
		return "<root>"
	}
	return at
}
