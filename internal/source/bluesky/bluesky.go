// Package bluesky fetches post content over the AT-protocol XRPC API so it
// can be fingerprinted. The ledger itself never talks to Bluesky; this client
// is the boundary that turns a post reference into {text, images, locator,
// author}.
package bluesky

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	dErrors "metasignet/pkg/domain-errors"
)

// DefaultBaseURL is the public AppView endpoint; reads need no session.
const DefaultBaseURL = "https://public.api.bsky.app"

const (
	maxImageBytes   = 8 << 20
	defaultFeedSize = 10
)

// Post is the fetched content of one Bluesky post, ready for fingerprinting.
type Post struct {
	URI          string    // canonical at:// URI
	WebURL       string    // https://bsky.app/... form for display
	Text         string
	Images       [][]byte  // decoded blob bytes, embed order
	AuthorDID    string
	AuthorHandle string
	IndexedAt    time.Time
}

// Client is an XRPC client for the endpoints MetaSignet needs.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL points the client at a different XRPC host.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(base, "/")
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets a logger for fetch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Bluesky content client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// ExtractPostID returns the record key of a post reference. bsky.app URLs
// and at:// URIs carry the rkey as the last path segment; anything else is
// assumed to already be an rkey.
func ExtractPostID(ref string) string {
	if strings.Contains(ref, "bsky.app") || strings.HasPrefix(ref, "at://") {
		parts := strings.Split(strings.TrimSuffix(ref, "/"), "/")
		return parts[len(parts)-1]
	}
	return ref
}

// GetPost fetches a post by bsky.app URL or at:// URI, including its image
// blobs. Blob fetches run in parallel; a post without images returns an
// empty slice.
func (c *Client) GetPost(ctx context.Context, ref string) (*Post, error) {
	uri, err := c.canonicalURI(ctx, ref)
	if err != nil {
		return nil, err
	}

	var out struct {
		Posts []postView `json:"posts"`
	}
	query := url.Values{"uris": []string{uri}}
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getPosts", query, &out); err != nil {
		return nil, err
	}
	if len(out.Posts) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "post not found")
	}

	post := toPost(out.Posts[0])
	if err := c.fetchImages(ctx, &out.Posts[0], post); err != nil {
		return nil, err
	}
	return post, nil
}

// AuthorFeed lists recent posts by an actor (DID or handle), without image
// blobs. Used for pick-a-post flows where only text previews are shown.
func (c *Client) AuthorFeed(ctx context.Context, actor string, limit int) ([]*Post, error) {
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}
	if limit <= 0 {
		limit = defaultFeedSize
	}

	var out struct {
		Feed []struct {
			Post postView `json:"post"`
		} `json:"feed"`
	}
	query := url.Values{
		"actor": []string{actor},
		"limit": []string{fmt.Sprintf("%d", limit)},
	}
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getAuthorFeed", query, &out); err != nil {
		return nil, err
	}

	posts := make([]*Post, 0, len(out.Feed))
	for _, item := range out.Feed {
		posts = append(posts, toPost(item.Post))
	}
	return posts, nil
}

// postView is the subset of app.bsky.feed.defs#postView we consume.
type postView struct {
	URI    string `json:"uri"`
	Author struct {
		DID    string `json:"did"`
		Handle string `json:"handle"`
	} `json:"author"`
	Record struct {
		Text string `json:"text"`
	} `json:"record"`
	Embed struct {
		Images []struct {
			Fullsize string `json:"fullsize"`
		} `json:"images"`
	} `json:"embed"`
	IndexedAt time.Time `json:"indexedAt"`
}

func toPost(view postView) *Post {
	rkey := ExtractPostID(view.URI)
	return &Post{
		URI:          view.URI,
		WebURL:       fmt.Sprintf("https://bsky.app/profile/%s/post/%s", view.Author.Handle, rkey),
		Text:         view.Record.Text,
		Images:       [][]byte{},
		AuthorDID:    view.Author.DID,
		AuthorHandle: view.Author.Handle,
		IndexedAt:    view.IndexedAt,
	}
}

// canonicalURI turns any supported post reference into an at:// URI. A
// bsky.app URL names the author by handle, which must be resolved to a DID
// first.
func (c *Client) canonicalURI(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "post reference is required")
	}
	if strings.HasPrefix(ref, "at://") {
		return ref, nil
	}
	if !strings.Contains(ref, "bsky.app") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported post reference, expected at:// URI or bsky.app URL")
	}

	// https://bsky.app/profile/{handle-or-did}/post/{rkey}
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "malformed post URL")
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) != 4 || parts[0] != "profile" || parts[2] != "post" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "malformed post URL")
	}
	actor, rkey := parts[1], parts[3]

	did := actor
	if !strings.HasPrefix(actor, "did:") {
		did, err = c.resolveHandle(ctx, actor)
		if err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("at://%s/app.bsky.feed.post/%s", did, rkey), nil
}

func (c *Client) resolveHandle(ctx context.Context, handle string) (string, error) {
	var out struct {
		DID string `json:"did"`
	}
	query := url.Values{"handle": []string{handle}}
	if err := c.get(ctx, "/xrpc/com.atproto.identity.resolveHandle", query, &out); err != nil {
		return "", err
	}
	if out.DID == "" {
		return "", dErrors.New(dErrors.CodeNotFound, "handle did not resolve")
	}
	return out.DID, nil
}

// fetchImages downloads the post's image blobs concurrently, preserving
// embed order.
func (c *Client) fetchImages(ctx context.Context, view *postView, post *Post) error {
	count := len(view.Embed.Images)
	if count == 0 {
		return nil
	}

	images := make([][]byte, count)
	g, gctx := errgroup.WithContext(ctx)
	for i, img := range view.Embed.Images {
		i, img := i, img
		g.Go(func() error {
			data, err := c.fetchBlob(gctx, img.Fullsize)
			if err != nil {
				return err
			}
			images[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	post.Images = images
	return nil
}

func (c *Client) fetchBlob(ctx context.Context, blobURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, blobURL, nil)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "malformed image URL")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "image fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("image fetch returned status %d", resp.StatusCode))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "image read failed")
	}
	if len(data) > maxImageBytes {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "image exceeds size limit")
	}
	return data, nil
}

// get performs one XRPC query call and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "bluesky is unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return dErrors.New(dErrors.CodeNotFound, "post not found")
	case resp.StatusCode == http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("bluesky rejected request", "path", path, "body", string(body))
		return dErrors.New(dErrors.CodeInvalidInput, "bluesky rejected the request")
	default:
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("bluesky returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "decode bluesky response")
	}
	return nil
}
