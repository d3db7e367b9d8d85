package dependency

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

func decodeXML(data []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errMalformed, err)
	}

	return nil
}

// parsePOM reads <dependencies> of a Maven project, including the managed
// ones. Property references such as ${spring.version} are kept verbatim.
func parsePOM(data []byte) ([]dep, error) {
	type dependency struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
		Version    string `xml:"version"`
		Scope      string `xml:"scope"`
	}

	var pom struct {
		XMLName      xml.Name     `xml:"project"`
		Dependencies []dependency `xml:"dependencies>dependency"`
		Managed      []dependency `xml:"dependencyManagement>dependencies>dependency"`
	}

	if err := decodeXML(data, &pom); err != nil {
		return nil, err
	}

	deps := make([]dep, 0, len(pom.Dependencies)+len(pom.Managed))

	for _, d := range append(pom.Dependencies, pom.Managed...) {
		scope := d.Scope
		switch scope {
		case "", "compile", "runtime":
			scope = ScopeRuntime
		case "test":
			scope = ScopeDev
		}

		deps = append(deps, dep{name: d.GroupID + ":" + d.ArtifactID, version: d.Version, scope: scope})
	}

	return deps, nil
}

func parsePackagesConfig(data []byte) ([]dep, error) {
	var config struct {
		XMLName  xml.Name `xml:"packages"`
		Packages []struct {
			ID          string `xml:"id,attr"`
			Version     string `xml:"version,attr"`
			Development bool   `xml:"developmentDependency,attr"`
		} `xml:"package"`
	}

	if err := decodeXML(data, &config); err != nil {
		return nil, err
	}

	deps := make([]dep, 0, len(config.Packages))

	for _, p := range config.Packages {
		scope := ScopeRuntime
		if p.Development {
			scope = ScopeDev
		}

		deps = append(deps, dep{name: p.ID, version: p.Version, scope: scope})
	}

	return deps, nil
}
