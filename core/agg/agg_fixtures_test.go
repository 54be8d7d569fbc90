package agg

import (
	"fmt"
	"strings"
	"time"
)

// gitLogScenario represents a single commit scenario for test data generation.
type gitLogScenario struct {
	commitHash string
	author     string
	email      string
	date       time.Time
	message    string
	files      []fileChange
}

// fileChange represents a single file change in a commit.
type fileChange struct {
	path      string
	additions string
	deletions string
}

// generateTestGitLog renders scenarios the way `git log --numstat` prints the commit log format.
func generateTestGitLog(scenarios []gitLogScenario) []byte {
	var b strings.Builder
	for _, s := range scenarios {
		fmt.Fprintf(&b, "\x1e%s\x1f%s\x1f%s\x1f%s\x1f%s\n\x1f", s.commitHash, s.author, s.email, s.date.Format(time.RFC3339), s.message)
		if len(s.files) > 0 {
			b.WriteString("\n\n")
			for _, f := range s.files {
				fmt.Fprintf(&b, "%s\t%s\t%s\n", f.additions, f.deletions, f.path)
			}
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// generateTestMessageLog renders messages the way `git log --format=%x1e%B` prints them.
func generateTestMessageLog(messages ...string) []byte {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString("\x1e" + m + "\n\n")
	}
	return []byte(b.String())
}

func hashOf(i int) string {
	return fmt.Sprintf("%040x", i)
}

// basicScenarios covers AI and human commits, binary files and a merge that
// changes nothing against its first parent.
func basicScenarios() []gitLogScenario {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	return []gitLogScenario{
		{
			commitHash: hashOf(4),
			author:     "Ada Lovelace",
			email:      "ada@example.com",
			date:       base,
			message:    "Add parser\n\n🤖 Generated with [Claude Code]\n\nCo-Authored-By: Claude <noreply@anthropic.com>",
			files: []fileChange{
				{"core/parser.go", "80", "2"},
				{"core/parser_test.go", "40", "0"},
			},
		},
		{
			commitHash: hashOf(3),
			author:     "Grace Hopper",
			email:      "grace@example.com",
			date:       base.Add(-26 * time.Hour),
			message:    "Fix typo in README\n\nJust a small fix.",
			files: []fileChange{
				{"README.md", "1", "1"},
			},
		},
		{
			commitHash: hashOf(2),
			author:     "Grace Hopper",
			email:      "grace@example.com",
			date:       base.Add(-27 * time.Hour),
			message:    "Add logo\n\nCo-authored-by: Copilot <copilot@github.com>",
			files: []fileChange{
				{"logo.png", "-", "-"},
				{"docs/index.md", "10", "0"},
			},
		},
		{
			commitHash: hashOf(1),
			author:     "Ada Lovelace",
			email:      "ada@example.com",
			date:       base.Add(-72 * time.Hour),
			message:    "Merge branch 'feature'",
		},
	}
}
