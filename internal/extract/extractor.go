// Package extract parses chat messages into task candidates.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"taskmate/internal/deadline"
	"taskmate/internal/model"
)

// ErrEmptyMessage reports extractor input with no content.
var ErrEmptyMessage = errors.New("message is empty")

// Candidate is a provisional task parsed out of a message, not yet persisted.
type Candidate struct {
	Title       string
	Description string
	Deadline    *time.Time
	Priority    string
}

// The three pattern families, in result order. Families one and two capture
// a deadline clause, family three catches modal phrases without one. Each
// family is applied exhaustively on its own, so one message can produce the
// same span as a candidate under more than one family. Those duplicates are
// kept: callers see exactly what was matched.
var patterns = []*regexp.Regexp{
	// "need to finish report by Friday"
	regexp.MustCompile(`(?i)(?:need to|have to|must|should)\s+([^,.]+?)\s+(?:by|before|due)\s+([^,.]+)`),
	// "client presentation due Thursday 3PM"
	regexp.MustCompile(`(?i)([^,.]+?)\s+(?:due|by|before)\s+([^,.]+)`),
	// "I need to walk the dog"
	regexp.MustCompile(`(?i)(?:i\s+)?(?:need to|have to|must|should)\s+([^,.]+)`),
}

// Extract scans message for task phrases and returns every candidate found.
// Deadlines are resolved relative to now. An all-whitespace message is a
// caller error; a message with no matches returns an empty slice.
func Extract(message string, now time.Time) ([]Candidate, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	var candidates []Candidate
	for _, pattern := range patterns {
		for _, match := range pattern.FindAllStringSubmatch(message, -1) {
			title := strings.TrimSpace(match[1])
			if len(title) <= 2 {
				continue
			}

			var due *time.Time
			if len(match) > 2 {
				if deadlineText := strings.TrimSpace(match[2]); deadlineText != "" {
					due = deadline.Resolve(deadlineText, now)
				}
			}

			candidates = append(candidates, Candidate{
				Title:       title,
				Description: fmt.Sprintf("Extracted from: \"%s\"", message),
				Deadline:    due,
				Priority:    model.PriorityMedium,
			})
		}
	}

	return candidates, nil
}
