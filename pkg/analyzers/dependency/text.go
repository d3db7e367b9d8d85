package dependency

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

var (
	pep508Name   = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(\[[^\]]*\])?\s*(.*)$`)
	gemLine      = regexp.MustCompile(`^\s*gem\s+['"]([^'"]+)['"]\s*(?:,\s*['"]([^'"]+)['"](?:\s*,\s*['"]([^'"]+)['"])?)?`)
	gemGroup     = regexp.MustCompile(`^\s*group\s+:(\w+)`)
	gemLockSpec  = regexp.MustCompile(`^    ([^\s(]+)(?: \(([^)]+)\))?$`)
	gradleConfig = regexp.MustCompile(`^\s*(implementation|api|compileOnly|runtimeOnly|testImplementation|testRuntimeOnly|testCompileOnly|compile|testCompile|runtime|annotationProcessor|kapt|ksp|classpath)\s*\(?\s*['"]([^:'"\s]+):([^:'"\s]+)(?::([^'"\s]+))?['"]`)
)

func scanLines(data []byte, fn func(line string) error) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		if err := fn(sc.Text()); err != nil {
			return err
		}
	}

	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %w", errMalformed, err)
	}

	return nil
}

// parsePEP508 reads "name[extras] spec ; markers" or "name @ url".
func parsePEP508(spec, scope string) (dep, bool) {
	spec = strings.TrimSpace(spec)
	if i := strings.Index(spec, ";"); i >= 0 {
		spec = strings.TrimSpace(spec[:i])
	}

	m := pep508Name.FindStringSubmatch(spec)
	if m == nil {
		return dep{}, false
	}

	version := strings.TrimSpace(m[3])
	version = strings.TrimSpace(strings.TrimPrefix(version, "@"))
	version = strings.Trim(version, "()")

	return dep{name: m[1], version: version, scope: scope}, true
}

// parseRequirements reads requirements.txt. Options (-r, -e, --index-url)
// and comments are skipped; a line that is not a requirement is an error.
func parseRequirements(data []byte) ([]dep, error) {
	var deps []dep

	lineNo := 0

	err := scanLines(data, func(line string) error {
		lineNo++

		if i := strings.Index(line, " #"); i >= 0 {
			line = line[:i]
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			return nil
		}

		d, ok := parsePEP508(strings.TrimSuffix(line, "\\"), ScopeRuntime)
		if !ok {
			return fmt.Errorf("%w: line %d: %q is not a requirement", errMalformed, lineNo, line)
		}

		deps = append(deps, d)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return deps, nil
}

// parseYarnLock reads both the classic and the berry lockfile layout: an
// unindented key line listing the specs, then an indented version line.
func parseYarnLock(data []byte) ([]dep, error) {
	var (
		deps    []dep
		current string
	)

	seen := map[string]bool{}

	err := scanLines(data, func(line string) error {
		if line == "" || strings.HasPrefix(line, "#") {
			return nil
		}

		if line[0] != ' ' {
			current = ""

			key := strings.TrimSuffix(strings.TrimSpace(line), ":")
			if key == "__metadata" {
				return nil
			}

			first := strings.Trim(strings.TrimSpace(strings.Split(key, ",")[0]), `"`)
			if at := strings.LastIndex(first, "@"); at > 0 {
				current = first[:at]
			}

			return nil
		}

		trimmed := strings.TrimSpace(line)
		if current == "" || !strings.HasPrefix(trimmed, "version") {
			return nil
		}

		version := strings.TrimSpace(strings.TrimPrefix(trimmed, "version"))
		version = strings.Trim(strings.TrimSpace(strings.TrimPrefix(version, ":")), `"`)

		if key := current + "@" + version; !seen[key] {
			seen[key] = true
			deps = append(deps, dep{name: current, version: version, scope: ScopeRuntime})
		}

		current = ""

		return nil
	})
	if err != nil {
		return nil, err
	}

	return deps, nil
}

// parseGemfile reads gem declarations; a "group :x do ... end" block sets
// the scope of the gems inside it.
func parseGemfile(data []byte) ([]dep, error) {
	var deps []dep

	scope := ScopeRuntime

	err := scanLines(data, func(line string) error {
		trimmed := strings.TrimSpace(line)

		if m := gemGroup.FindStringSubmatch(line); m != nil {
			scope = m[1]
			if scope == "development" || scope == "test" {
				scope = ScopeDev
			}

			return nil
		}

		if trimmed == "end" {
			scope = ScopeRuntime

			return nil
		}

		m := gemLine.FindStringSubmatch(line)
		if m == nil {
			return nil
		}

		version := m[2]
		if m[3] != "" {
			version += ", " + m[3]
		}

		deps = append(deps, dep{name: m[1], version: version, scope: scope})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return deps, nil
}

// parseGemfileLock reads the top-level specs of the GEM section. Deeper
// indented lines are the specs' own requirements.
func parseGemfileLock(data []byte) ([]dep, error) {
	var (
		deps    []dep
		section string
		inSpecs bool
	)

	err := scanLines(data, func(line string) error {
		if line == "" {
			return nil
		}

		if line[0] != ' ' {
			section = strings.TrimSpace(line)
			inSpecs = false

			return nil
		}

		if strings.TrimSpace(line) == "specs:" {
			inSpecs = true

			return nil
		}

		if section != "GEM" || !inSpecs {
			return nil
		}

		if m := gemLockSpec.FindStringSubmatch(line); m != nil {
			deps = append(deps, dep{name: m[1], version: m[2], scope: ScopeRuntime})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return deps, nil
}

// parseGradle reads "configuration 'group:artifact:version'" declarations
// in both the Groovy and the Kotlin DSL.
func parseGradle(data []byte) ([]dep, error) {
	var deps []dep

	err := scanLines(data, func(line string) error {
		m := gradleConfig.FindStringSubmatch(line)
		if m == nil {
			return nil
		}

		scope := ScopeRuntime

		switch cfg := m[1]; {
		case strings.HasPrefix(cfg, "test"):
			scope = ScopeDev
		case cfg == "compileOnly" || cfg == "annotationProcessor" || cfg == "kapt" || cfg == "ksp" || cfg == "classpath":
			scope = ScopeBuild
		}

		deps = append(deps, dep{name: m[2] + ":" + m[3], version: m[4], scope: scope})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return deps, nil
}

// parseGoSum reads module checksums. Each module version appears once even
// though go.sum lists it with and without "/go.mod".
func parseGoSum(data []byte) ([]dep, error) {
	var deps []dep

	seen := map[string]bool{}
	lineNo := 0

	err := scanLines(data, func(line string) error {
		lineNo++

		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil
		}

		if len(fields) != 3 || !strings.HasPrefix(fields[2], "h1:") {
			return fmt.Errorf("%w: go.sum line %d", errMalformed, lineNo)
		}

		version := strings.TrimSuffix(fields[1], "/go.mod")

		if key := fields[0] + "@" + version; !seen[key] {
			seen[key] = true
			deps = append(deps, dep{name: fields[0], version: version, scope: ScopeIndirect})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return deps, nil
}
