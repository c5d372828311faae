// Package summary finds the designated bot comment in a thread and extracts
// its summary text.
package summary

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/pep299/subreddit-digest/internal/model"
)

// Extractor extracts summaries written by a single bot account
type Extractor struct {
	Author      string
	StartMarker string
	EndMarker   string

	policy *bluemonday.Policy
}

// NewExtractor creates an extractor for the given author and delimiters
func NewExtractor(author, startMarker, endMarker string) *Extractor {
	// Summaries are served to browsers as HTML
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return &Extractor{
		Author:      author,
		StartMarker: startMarker,
		EndMarker:   endMarker,
		policy:      p,
	}
}

// FindComment returns the first comment written by the designated author,
// searching depth first in thread order.
func (e *Extractor) FindComment(comments []model.Comment) (*model.Comment, bool) {
	for i := range comments {
		if strings.EqualFold(comments[i].Author, e.Author) {
			return &comments[i], true
		}
		if found, ok := e.FindComment(comments[i].Replies); ok {
			return found, true
		}
	}
	return nil, false
}

// Extract returns the summary from the designated author's comment.
// ok is false when no such comment exists or the markers are missing.
func (e *Extractor) Extract(thread *model.Thread) (string, bool) {
	if thread == nil {
		return "", false
	}

	comment, ok := e.FindComment(thread.Comments)
	if !ok {
		return "", false
	}

	body := comment.BodyHTML
	if body == "" {
		body = comment.Body
	}
	return e.between(body)
}

// between returns the trimmed text between the start and end markers
func (e *Extractor) between(body string) (string, bool) {
	// Without raw_json Reddit entity-encodes body_html
	if !strings.Contains(body, e.StartMarker) {
		body = html.UnescapeString(body)
	}

	start := strings.Index(body, e.StartMarker)
	if start < 0 {
		return "", false
	}
	rest := body[start+len(e.StartMarker):]

	end := strings.Index(rest, e.EndMarker)
	if end < 0 {
		return "", false
	}

	text := rest[:end]
	if e.policy != nil {
		text = e.policy.Sanitize(text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return text, true
}
