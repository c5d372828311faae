package reddit

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pep299/subreddit-digest/internal/model"
)

// Thing kinds used by the Reddit API
const (
	kindComment = "t1"
	kindLink    = "t3"
	kindMore    = "more"
)

// previewResolution is the preview resolution used for story images
const previewResolution = 3

// Listing represents a Reddit listing response
type Listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Children []Thing `json:"children"`
	} `json:"data"`
}

// Thing wraps an item of a listing; Data is decoded by kind
type Thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Link represents the fields of a submission used by the digest
type Link struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Domain   string   `json:"domain"`
	Stickied bool     `json:"stickied"`
	Preview  *Preview `json:"preview,omitempty"`
}

type Preview struct {
	Images []PreviewImage `json:"images"`
}

type PreviewImage struct {
	Source      ImageSource   `json:"source"`
	Resolutions []ImageSource `json:"resolutions"`
}

type ImageSource struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Comment represents a Reddit comment
type Comment struct {
	ID       string  `json:"id"`
	Author   string  `json:"author"`
	Body     string  `json:"body"`
	BodyHTML string  `json:"body_html"`
	Replies  Replies `json:"replies"`
}

// Replies holds the nested reply listing of a comment.
// Reddit sends an empty string instead of a listing when there are no replies.
type Replies struct {
	Listing *Listing
}

func (r *Replies) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte(`""`)) || bytes.Equal(trimmed, []byte("null")) {
		r.Listing = nil
		return nil
	}

	var listing Listing
	if err := json.Unmarshal(trimmed, &listing); err != nil {
		return fmt.Errorf("decoding replies: %w", err)
	}
	r.Listing = &listing
	return nil
}

// toPost converts a link to a ranked post
func (l Link) toPost(position int) model.Post {
	return model.Post{
		ID:       l.ID,
		Title:    l.Title,
		URL:      l.URL,
		Domain:   l.Domain,
		Position: position,
		Image:    l.image(),
	}
}

func (l Link) image() *model.Image {
	if l.Preview == nil || len(l.Preview.Images) == 0 {
		return nil
	}
	resolutions := l.Preview.Images[0].Resolutions
	if len(resolutions) <= previewResolution {
		return nil
	}
	res := resolutions[previewResolution]
	return &model.Image{URL: res.URL, Width: res.Width, Height: res.Height}
}

// linksFromListing decodes all submissions of a listing
func linksFromListing(listing *Listing) ([]Link, error) {
	links := make([]Link, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Kind != kindLink {
			continue
		}
		var link Link
		if err := json.Unmarshal(child.Data, &link); err != nil {
			return nil, fmt.Errorf("decoding link: %w", err)
		}
		links = append(links, link)
	}
	return links, nil
}

// commentsFromListing recursively extracts comments from a listing.
// "more" stubs are skipped; undecodable comments are dropped.
func commentsFromListing(listing *Listing) []model.Comment {
	if listing == nil {
		return nil
	}

	var comments []model.Comment
	for _, child := range listing.Data.Children {
		if child.Kind != kindComment {
			continue
		}

		var c Comment
		if err := json.Unmarshal(child.Data, &c); err != nil {
			continue
		}

		comments = append(comments, model.Comment{
			ID:       c.ID,
			Author:   c.Author,
			Body:     c.Body,
			BodyHTML: c.BodyHTML,
			Replies:  commentsFromListing(c.Replies.Listing),
		})
	}
	return comments
}
