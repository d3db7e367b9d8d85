package dependency

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// parsePubspec reads dependencies of a Dart/Flutter pubspec. A dependency
// is a version constraint, an empty value (any version) or a mapping that
// names an sdk, path, git or hosted source.
func parsePubspec(data []byte) ([]dep, error) {
	var pubspec struct {
		Dependencies    map[string]yaml.Node `yaml:"dependencies"`
		DevDependencies map[string]yaml.Node `yaml:"dev_dependencies"`
	}

	if err := yaml.Unmarshal(data, &pubspec); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}

	deps := fromMap(pubspec.Dependencies, ScopeRuntime, pubVersion)
	deps = append(deps, fromMap(pubspec.DevDependencies, ScopeDev, pubVersion)...)

	return sortDeps(deps), nil
}

func pubVersion(node yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" || node.Value == "" {
			return "any"
		}

		return node.Value
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "version" {
				return node.Content[i+1].Value
			}
		}

		if len(node.Content) >= 2 {
			return node.Content[0].Value + ":" + node.Content[1].Value
		}
	}

	return "any"
}
