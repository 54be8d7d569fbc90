package schema

// Custom string types for type safety.
type (
	// Assistant identifies which AI tool's signature matched a commit message.
	Assistant string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for analysis history.
	DatabaseBackend string

	// ObservationKind distinguishes the two day-partitioned observation logs.
	ObservationKind string

	// Provider names an AI API vendor for usage extraction and secrets.
	Provider string
)

// All assistant identifiers, in classification priority order.
const (
	ClaudeCode    Assistant = "claude_code"
	GitHubCopilot Assistant = "github_copilot"
	Cursor        Assistant = "cursor"
	GeneralAI     Assistant = "general_ai"
	AssistantNone Assistant = "none"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All analysis backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// Observation log kinds. The value doubles as the file name prefix.
const (
	TimingKind   ObservationKind = "timing"
	APIUsageKind ObservationKind = "api_usage"
)

// Known providers.
const (
	AnthropicProvider Provider = "anthropic"
	OpenAIProvider    Provider = "openai"
)

// ObservationDateLayout is the date layout embedded in observation file names.
const ObservationDateLayout = "2006-01-02"

// AllAssistants lists every assistant that can appear in a breakdown, in priority order.
var AllAssistants = []Assistant{ClaudeCode, GitHubCopilot, Cursor, GeneralAI}

// AllObservationKinds lists every observation log kind.
var AllObservationKinds = []ObservationKind{TimingKind, APIUsageKind}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid analysis backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
