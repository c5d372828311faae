package model

// Image describes a preview image of a post
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Post is one ranked item from the channel
type Post struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Domain   string `json:"domain"`
	Position int    `json:"position"`
	Image    *Image `json:"image,omitempty"`
}

// Comment is a single comment in a post's discussion thread
type Comment struct {
	ID       string    `json:"id"`
	Author   string    `json:"author"`
	Body     string    `json:"body"`
	BodyHTML string    `json:"body_html"`
	Replies  []Comment `json:"replies,omitempty"`
}

type Thread struct {
	PostID   string    `json:"post_id"`
	Comments []Comment `json:"comments"`
}
