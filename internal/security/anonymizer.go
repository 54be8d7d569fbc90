// Package security has identity anonymization and the encrypted API key store.
package security

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"sync"

	"github.com/ncolesummers/ai-code-metrics/schema"
)

// identifierPattern matches word-like identifiers in code and free text.
var identifierPattern = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]*\b`)

// keywords are left untouched so anonymized snippets stay readable.
var keywords = map[string]struct{}{
	"def": {}, "class": {}, "import": {}, "from": {}, "return": {},
	"if": {}, "else": {}, "for": {}, "while": {}, "try": {}, "except": {},
	"and": {}, "or": {}, "not": {}, "is": {}, "in": {}, "as": {}, "with": {},
	"True": {}, "False": {}, "None": {}, "self": {}, "super": {}, "pass": {},
	"break": {}, "continue": {}, "raise": {}, "assert": {}, "lambda": {},
	"func": {}, "package": {}, "var": {}, "const": {}, "type": {}, "struct": {},
	"nil": {}, "true": {}, "false": {}, "go": {}, "defer": {}, "range": {},
}

// Anonymizer replaces identifiers with salted hashes. The same identifier always
// maps to the same replacement for a given salt.
type Anonymizer struct {
	salt string

	mu           sync.Mutex
	replacements map[string]string
}

// NewAnonymizer creates an anonymizer for the given salt.
func NewAnonymizer(salt string) *Anonymizer {
	return &Anonymizer{
		salt:         salt,
		replacements: make(map[string]string),
	}
}

// Identifier returns the replacement for a single identifier.
func (a *Anonymizer) Identifier(identifier string) string {
	if _, ok := keywords[identifier]; ok {
		return identifier
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if r, ok := a.replacements[identifier]; ok {
		return r
	}
	sum := sha256.Sum256([]byte(identifier + a.salt))
	r := "var_" + hex.EncodeToString(sum[:])[:8]
	a.replacements[identifier] = r
	return r
}

// Code replaces every non-keyword identifier in a snippet.
func (a *Anonymizer) Code(code string) string {
	return identifierPattern.ReplaceAllStringFunc(code, a.Identifier)
}

// Path anonymizes each slash-separated segment, keeping empty segments and
// those starting with '.' or '_'.
func (a *Anonymizer) Path(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" || part[0] == '.' || part[0] == '_' {
			continue
		}
		parts[i] = a.Identifier(part)
	}
	return strings.Join(parts, "/")
}

// Commits returns copies of records with author identity replaced.
func (a *Anonymizer) Commits(records []schema.CommitRecord) []schema.CommitRecord {
	out := make([]schema.CommitRecord, len(records))
	for i, r := range records {
		r.Author = a.Identifier(r.Author)
		r.AuthorEmail = a.Identifier(r.AuthorEmail)
		out[i] = r
	}
	return out
}
