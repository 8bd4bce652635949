package bluesky

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "metasignet/pkg/domain-errors"
)

const (
	testDID = "did:plc:abc123"
	testURI = "at://did:plc:abc123/app.bsky.feed.post/3k44abc"
)

func TestExtractPostID(t *testing.T) {
	cases := []struct {
		name string
		ref  string
		want string
	}{
		{name: "bsky app url", ref: "https://bsky.app/profile/alice.bsky.social/post/3k44abc", want: "3k44abc"},
		{name: "bsky app url trailing slash", ref: "https://bsky.app/profile/alice.bsky.social/post/3k44abc/", want: "3k44abc"},
		{name: "at uri", ref: testURI, want: "3k44abc"},
		{name: "bare rkey", ref: "3k44abc", want: "3k44abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractPostID(tc.ref))
		})
	}
}

// newTestServer serves the XRPC endpoints well enough for the client: handle
// resolution, getPosts with one image embed, an author feed, and the image
// blob itself.
func newTestServer(t *testing.T, imageBody []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/xrpc/com.atproto.identity.resolveHandle", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("handle") != "alice.bsky.social" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"did": testDID})
	})

	mux.HandleFunc("/xrpc/app.bsky.feed.getPosts", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("uris") != testURI {
			_ = json.NewEncoder(w).Encode(map[string]any{"posts": []any{}})
			return
		}
		post := map[string]any{
			"uri": testURI,
			"author": map[string]string{
				"did":    testDID,
				"handle": "alice.bsky.social",
			},
			"record":    map[string]string{"text": "hello world"},
			"indexedAt": "2025-06-01T12:00:00Z",
		}
		if imageBody != nil {
			post["embed"] = map[string]any{
				"images": []map[string]string{
					{"fullsize": server.URL + "/img/blob1"},
				},
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"posts": []any{post}})
	})

	mux.HandleFunc("/xrpc/app.bsky.feed.getAuthorFeed", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"feed": []map[string]any{
				{"post": map[string]any{
					"uri":       testURI,
					"author":    map[string]string{"did": testDID, "handle": "alice.bsky.social"},
					"record":    map[string]string{"text": "post one"},
					"indexedAt": "2025-06-01T12:00:00Z",
				}},
			},
		})
	})

	mux.HandleFunc("/img/blob1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(imageBody)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestGetPostByATURI(t *testing.T) {
	server := newTestServer(t, nil)
	client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	post, err := client.GetPost(context.Background(), testURI)
	require.NoError(t, err)

	assert.Equal(t, "hello world", post.Text)
	assert.Equal(t, testDID, post.AuthorDID)
	assert.Equal(t, "alice.bsky.social", post.AuthorHandle)
	assert.Equal(t, "https://bsky.app/profile/alice.bsky.social/post/3k44abc", post.WebURL)
	assert.Empty(t, post.Images)
}

func TestGetPostByWebURLResolvesHandle(t *testing.T) {
	server := newTestServer(t, nil)
	client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	post, err := client.GetPost(context.Background(), "https://bsky.app/profile/alice.bsky.social/post/3k44abc")
	require.NoError(t, err)
	assert.Equal(t, testURI, post.URI)
}

func TestGetPostFetchesImageBlobs(t *testing.T) {
	imageBody := []byte("fake image bytes")
	server := newTestServer(t, imageBody)
	client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	post, err := client.GetPost(context.Background(), testURI)
	require.NoError(t, err)
	require.Len(t, post.Images, 1)
	assert.Equal(t, imageBody, post.Images[0])
}

func TestGetPostNotFound(t *testing.T) {
	server := newTestServer(t, nil)
	client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	_, err := client.GetPost(context.Background(), "at://did:plc:other/app.bsky.feed.post/zzz")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestGetPostRejectsUnsupportedReference(t *testing.T) {
	client := NewClient()

	for _, ref := range []string{"", "ftp://example.com/x", "https://example.com/profile/a/post/b"} {
		_, err := client.GetPost(context.Background(), ref)
		require.Error(t, err, "ref %q", ref)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "ref %q", ref)
	}
}

func TestGetPostUnreachableHost(t *testing.T) {
	client := NewClient(WithBaseURL("http://127.0.0.1:1"))

	_, err := client.GetPost(context.Background(), testURI)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestAuthorFeed(t *testing.T) {
	server := newTestServer(t, nil)
	client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	posts, err := client.AuthorFeed(context.Background(), "alice.bsky.social", 5)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "post one", posts[0].Text)
}

func TestAuthorFeedRequiresActor(t *testing.T) {
	client := NewClient()
	_, err := client.AuthorFeed(context.Background(), "", 5)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
