package model

import "time"

// Story is a post joined with its bot-generated summary
type Story struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Domain      string `json:"domain"`
	Description string `json:"description"`
	Image       *Image `json:"image,omitempty"`
	Position    int    `json:"position"`
}

// NewStory builds a story from a post and its summary text
func NewStory(post Post, summary string) Story {
	return Story{
		ID:          post.ID,
		Title:       post.Title,
		URL:         post.URL,
		Domain:      post.Domain,
		Description: summary,
		Image:       post.Image,
		Position:    post.Position,
	}
}

// Snapshot is the published, read-only list of stories.
// A snapshot is never modified after it has been published.
type Snapshot struct {
	Channel     string    `json:"channel"`
	Generation  uint64    `json:"generation"`
	PublishedAt time.Time `json:"published_at"`
	Stories     []Story   `json:"stories"`
}

// Len returns the number of stories, treating a nil snapshot as empty
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Stories)
}
