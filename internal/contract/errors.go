package contract

import "fmt"

// RepositoryAccessError reports a path that is not a readable Git repository.
// It is fatal to the run.
type RepositoryAccessError struct {
	Path string
	Err  error
}

func (e *RepositoryAccessError) Error() string {
	return fmt.Sprintf("cannot access repository %q: %v", e.Path, e.Err)
}

func (e *RepositoryAccessError) Unwrap() error { return e.Err }

// ConfigLoadError reports a config file that exists but could not be parsed.
// Callers warn and continue with defaults.
type ConfigLoadError struct {
	Path string
	Err  error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("cannot load config %q, using defaults: %v", e.Path, e.Err)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }

// MalformedRecordError reports an unparseable line in an observation file.
// Readers skip the line and continue.
type MalformedRecordError struct {
	File string
	Line int
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at %s:%d: %v", e.File, e.Line, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// MissingSecretError reports that no API key is stored or exported for a provider.
type MissingSecretError struct {
	Provider string
}

func (e *MissingSecretError) Error() string {
	return fmt.Sprintf("no API key for provider %q: set %s or run 'aimetrics secrets set %s'", e.Provider, SecretEnvVar(e.Provider), e.Provider)
}
