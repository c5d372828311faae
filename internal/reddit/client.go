package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/pep299/subreddit-digest/internal/model"
)

const (
	oauthBaseURL  = "https://oauth.reddit.com"
	publicBaseURL = "https://www.reddit.com"
	tokenURL      = "https://www.reddit.com/api/v1/access_token"

	// maxPageSize is the largest limit Reddit accepts for a single listing page
	maxPageSize = 100
)

// ErrUnexpectedStatus is matched by every StatusError
var ErrUnexpectedStatus = errors.New("unexpected status code")

// StatusError is returned when Reddit answers with a non-200 status
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// Credentials configure OAuth access. With an empty ClientID the public JSON
// endpoints are used instead of the OAuth API.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Client fetches ranked posts and discussion threads from Reddit
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokenURL   string
	userAgent  string
	jsonSuffix string
	limiter    *rate.Limiter
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL (for testing)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTokenURL overrides the OAuth token endpoint (for testing)
func WithTokenURL(u string) Option {
	return func(c *Client) {
		c.tokenURL = u
	}
}

// WithUserAgent sets the User-Agent sent with every request
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRateLimit limits outgoing requests to perMinute requests per minute
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		burst := perMinute / 10
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a Reddit client. When credentials are given the client
// authenticates against the OAuth API, using the password grant if a username
// is set and the client credentials grant otherwise.
func NewClient(creds Credentials, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    publicBaseURL,
		tokenURL:   tokenURL,
		userAgent:  "subreddit-digest/1.0",
		jsonSuffix: ".json",
	}
	if creds.ClientID != "" {
		c.baseURL = oauthBaseURL
		c.jsonSuffix = ""
	}
	for _, opt := range opts {
		opt(c)
	}

	transport := &userAgentTransport{base: http.DefaultTransport, userAgent: c.userAgent}
	base := &http.Client{Transport: transport, Timeout: c.httpClient.Timeout}

	if creds.ClientID == "" {
		c.httpClient = base
		return c
	}

	// Token requests go through the same User-Agent transport; Reddit rejects default agents.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	var authed *http.Client
	if creds.Username != "" {
		conf := &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: c.tokenURL, AuthStyle: oauth2.AuthStyleInHeader},
		}
		src := oauth2.ReuseTokenSource(nil, &passwordTokenSource{
			ctx:      tokenCtx,
			conf:     conf,
			username: creds.Username,
			password: creds.Password,
		})
		authed = oauth2.NewClient(tokenCtx, src)
	} else {
		conf := &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     c.tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		authed = conf.Client(tokenCtx)
	}
	authed.Timeout = c.httpClient.Timeout
	c.httpClient = authed
	return c
}

// ListTopPosts returns up to limit posts from the hot listing of a subreddit,
// in ranked order with positions assigned from 0.
func (c *Client) ListTopPosts(ctx context.Context, subreddit string, limit int) ([]model.Post, error) {
	if limit <= 0 {
		return []model.Post{}, nil
	}

	posts := make([]model.Post, 0, limit)
	after := ""
	for len(posts) < limit {
		pageSize := limit - len(posts)
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageSize))
		query.Set("raw_json", "1")
		if after != "" {
			query.Set("after", after)
		}

		var listing Listing
		endpoint := fmt.Sprintf("%s/r/%s/hot%s?%s", c.baseURL, url.PathEscape(subreddit), c.jsonSuffix, query.Encode())
		if err := c.getJSON(ctx, endpoint, &listing); err != nil {
			return nil, fmt.Errorf("fetching hot posts of r/%s: %w", subreddit, err)
		}

		links, err := linksFromListing(&listing)
		if err != nil {
			return nil, fmt.Errorf("parsing hot posts of r/%s: %w", subreddit, err)
		}

		for _, link := range links {
			if len(posts) >= limit {
				break
			}
			posts = append(posts, link.toPost(len(posts)))
		}

		after = listing.Data.After
		if after == "" || len(links) == 0 {
			break
		}
	}

	return posts, nil
}

// GetThread returns the comment tree of a post
func (c *Client) GetThread(ctx context.Context, postID string) (*model.Thread, error) {
	query := url.Values{}
	query.Set("raw_json", "1")
	endpoint := fmt.Sprintf("%s/comments/%s%s?%s", c.baseURL, url.PathEscape(postID), c.jsonSuffix, query.Encode())

	// The response holds two listings: the submission itself and its comments.
	var listings []Listing
	if err := c.getJSON(ctx, endpoint, &listings); err != nil {
		return nil, fmt.Errorf("fetching thread %s: %w", postID, err)
	}
	if len(listings) < 2 {
		return nil, fmt.Errorf("unexpected thread response structure for %s", postID)
	}

	return &model.Thread{
		PostID:   postID,
		Comments: commentsFromListing(&listings[1]),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// userAgentTransport sets the User-Agent header on every request
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}

// passwordTokenSource fetches a fresh token with the password grant.
// Reddit does not issue refresh tokens for this grant.
type passwordTokenSource struct {
	ctx      context.Context
	conf     *oauth2.Config
	username string
	password string
}

func (s *passwordTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.conf.PasswordCredentialsToken(s.ctx, s.username, s.password)
	if err != nil {
		return nil, fmt.Errorf("requesting password grant token: %w", err)
	}
	return tok, nil
}
