package config

import "time"

// Repository source defaults.
const (
	SourceTypeList         = "list"
	SourceTypeOrganization = "organization"

	DefaultSourceType = SourceTypeList
	DefaultMaxRepos   = 0
)

// Analysis defaults.
const (
	DefaultCodeComplexity       = true
	DefaultDependencyComplexity = true
	DefaultDocumentationTokens  = true
	DefaultMaxFileSize          = "1MB"
	DefaultAnalyzerTimeout      = 5 * time.Minute
	DefaultTopN                 = 10
)

// DefaultExcludePatterns skips test and dependency-cache directories.
var DefaultExcludePatterns = []string{
	"*/test/*",
	"*/tests/*",
	"*/node_modules/*",
	"*/vendor/*",
	"*/.git/*",
}

// Output defaults.
const (
	FormatHTML = "html"
	FormatJSON = "json"
	FormatBoth = "both"

	DefaultOutputDirectory = "complexity_reports"
	DefaultCharts          = true
)

// DefaultFormats renders both report formats.
var DefaultFormats = []string{FormatHTML, FormatJSON}

// Fetch defaults.
const (
	DefaultCloneDirectory  = "repos"
	DefaultRetainSnapshots = true
)

// GitHub defaults.
const (
	DefaultGitHubAPIURL         = "https://api.github.com"
	DefaultGitHubCloneURL       = "https://github.com"
	DefaultGitHubMaxAttempts    = 5
	DefaultGitHubInitialBackoff = time.Second
	DefaultGitHubMaxBackoff     = time.Minute
)

// Pipeline defaults.
const (
	DefaultPipelineWorkers = 4
)

// Cache defaults.
const (
	DefaultCacheEnabled = false
	// DefaultCacheSubdir is joined to the clone directory when cache.directory is empty.
	DefaultCacheSubdir = ".repometrics-cache"
)

// Logging defaults.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"

	DefaultLogLevel  = "info"
	DefaultLogFormat = LogFormatText

	// DefaultTraceSampleRatio samples every run.
	DefaultTraceSampleRatio = 1.0
)
