package mocks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pep299/subreddit-digest/internal/model"
)

// Mock Reddit source
type MockRedditSource struct {
	mu sync.Mutex

	Posts     []model.Post
	ListErr   error
	Threads   map[string]*model.Thread
	ThreadErr map[string]error

	// Block holds GetThread for the listed post IDs until the channel is
	// closed, ignoring the request context.
	Block   map[string]chan struct{}
	BlockFn func(postID string) <-chan struct{}

	listCalls   atomic.Int32
	threadCalls atomic.Int32
	fetched     []string
}

// NewMockRedditSource creates a source that returns the given posts and threads
func NewMockRedditSource(posts []model.Post, threads map[string]*model.Thread) *MockRedditSource {
	return &MockRedditSource{
		Posts:     posts,
		Threads:   threads,
		ThreadErr: make(map[string]error),
		Block:     make(map[string]chan struct{}),
	}
}

func (m *MockRedditSource) ListTopPosts(ctx context.Context, channel string, limit int) ([]model.Post, error) {
	m.listCalls.Add(1)

	m.mu.Lock()
	posts, err := m.Posts, m.ListErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if limit < len(posts) {
		posts = posts[:limit]
	}
	return append([]model.Post(nil), posts...), nil
}

func (m *MockRedditSource) GetThread(ctx context.Context, postID string) (*model.Thread, error) {
	m.threadCalls.Add(1)

	m.mu.Lock()
	m.fetched = append(m.fetched, postID)
	block := m.Block[postID]
	blockFn := m.BlockFn
	err := m.ThreadErr[postID]
	thread, ok := m.Threads[postID]
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if blockFn != nil {
		if ch := blockFn(postID); ch != nil {
			<-ch
		}
	}

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("thread %s not found", postID)
	}
	return thread, nil
}

// SetPosts replaces the posts returned by later listings
func (m *MockRedditSource) SetPosts(posts []model.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Posts = posts
}

// ListCalls returns how many times ListTopPosts was called
func (m *MockRedditSource) ListCalls() int {
	return int(m.listCalls.Load())
}

// ThreadCalls returns how many times GetThread was called
func (m *MockRedditSource) ThreadCalls() int {
	return int(m.threadCalls.Load())
}

// Fetched returns the post IDs passed to GetThread, in call order
func (m *MockRedditSource) Fetched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetched...)
}

// SummaryThread builds a thread with a single summary bot comment
func SummaryThread(postID, author, summary string) *model.Thread {
	return &model.Thread{
		PostID: postID,
		Comments: []model.Comment{
			{ID: "c_" + postID, Author: author, Body: "Summary: <blockquote>" + summary + "</blockquote> more"},
		},
	}
}
