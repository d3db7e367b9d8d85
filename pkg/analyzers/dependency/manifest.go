package dependency

import (
	"errors"
	"sort"
)

// Ecosystems.
const (
	EcosystemNPM      = "npm"
	EcosystemYarn     = "yarn"
	EcosystemPip      = "pip"
	EcosystemPoetry   = "poetry"
	EcosystemBundler  = "bundler"
	EcosystemMaven    = "maven"
	EcosystemGradle   = "gradle"
	EcosystemCargo    = "cargo"
	EcosystemGo       = "go"
	EcosystemComposer = "composer"
	EcosystemDart     = "dart"
	EcosystemNuGet    = "nuget"
)

// Scopes shared by several parsers.
const (
	ScopeRuntime  = "runtime"
	ScopeDev      = "dev"
	ScopePeer     = "peer"
	ScopeOptional = "optional"
	ScopeBuild    = "build"
	ScopeIndirect = "indirect"
)

var errMalformed = errors.New("malformed manifest")

// dep is one parsed declaration before it is tied to a repository.
type dep struct {
	name    string
	version string
	scope   string
}

type parser func(data []byte) ([]dep, error)

// manifest binds a file name to its ecosystem and parser.
type manifest struct {
	ecosystem string
	parse     parser
}

var manifests = map[string]manifest{
	"package.json":      {EcosystemNPM, parsePackageJSON},
	"package-lock.json": {EcosystemNPM, parsePackageLock},
	"yarn.lock":         {EcosystemYarn, parseYarnLock},
	"requirements.txt":  {EcosystemPip, parseRequirements},
	"Pipfile":           {EcosystemPip, parsePipfile},
	"Pipfile.lock":      {EcosystemPip, parsePipfileLock},
	"pyproject.toml":    {EcosystemPoetry, parsePyproject},
	"poetry.lock":       {EcosystemPoetry, parseTOMLPackages},
	"Gemfile":           {EcosystemBundler, parseGemfile},
	"Gemfile.lock":      {EcosystemBundler, parseGemfileLock},
	"pom.xml":           {EcosystemMaven, parsePOM},
	"build.gradle":      {EcosystemGradle, parseGradle},
	"build.gradle.kts":  {EcosystemGradle, parseGradle},
	"Cargo.toml":        {EcosystemCargo, parseCargo},
	"Cargo.lock":        {EcosystemCargo, parseTOMLPackages},
	"go.mod":            {EcosystemGo, parseGoMod},
	"go.sum":            {EcosystemGo, parseGoSum},
	"composer.json":     {EcosystemComposer, parseComposerJSON},
	"composer.lock":     {EcosystemComposer, parseComposerLock},
	"pubspec.yaml":      {EcosystemDart, parsePubspec},
	"packages.config":   {EcosystemNuGet, parsePackagesConfig},
	"project.json":      {EcosystemNuGet, parseProjectJSON},
}

// Manifests returns the recognized manifest file names, sorted.
func Manifests() []string {
	names := make([]string, 0, len(manifests))
	for name := range manifests {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// sortDeps orders map-derived declarations so results are stable.
func sortDeps(deps []dep) []dep {
	sort.SliceStable(deps, func(i, j int) bool {
		if deps[i].scope != deps[j].scope {
			return deps[i].scope < deps[j].scope
		}

		return deps[i].name < deps[j].name
	})

	return deps
}

// fromMap turns a name → version map into declarations of one scope.
func fromMap[V any](m map[string]V, scope string, version func(V) string) []dep {
	deps := make([]dep, 0, len(m))
	for name, v := range m {
		deps = append(deps, dep{name: name, version: version(v), scope: scope})
	}

	return deps
}

func identity(s string) string { return s }
