package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"metasignet/internal/source/bluesky"
	"metasignet/internal/verification/handler/mocks"
	"metasignet/internal/verification/models"
	"metasignet/internal/verification/service"
	"metasignet/pkg/domain"
	dErrors "metasignet/pkg/domain-errors"
	"metasignet/pkg/requestcontext"
)

const testFingerprint = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824:"

func testRecord() models.VerificationRecord {
	return models.VerificationRecord{
		Fingerprint:  testFingerprint,
		ContentURI:   "at://did:plc:abc/app.bsky.feed.post/3k44",
		Attester:     "alice.bsky.social",
		CreationType: models.HumanCreated,
		Status:       models.SelfAttested,
		Vouches:      0,
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// newRouter wires the handler the way the server does: public routes bare,
// protected routes behind a middleware that stamps the actor into context.
// An empty actor simulates an unauthenticated request reaching the handler.
func newRouter(svc Service, source PostSource, actor domain.ActorID) http.Handler {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := New(svc, source, logger)

	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := req.Context()
				if !actor.IsZero() {
					ctx = requestcontext.WithActor(ctx, actor)
				}
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		h.RegisterProtected(r)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAttestSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		Attest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req service.AttestRequest) (models.VerificationRecord, error) {
			assert.Equal(t, domain.Fingerprint(testFingerprint), req.Fingerprint)
			assert.Equal(t, domain.ActorID("alice.bsky.social"), req.Attester)
			assert.Equal(t, models.HumanCreated, req.CreationType)
			return testRecord(), nil
		})

	router := newRouter(svc, nil, "alice.bsky.social")
	rec := doJSON(t, router, http.MethodPost, "/verify", map[string]any{
		"fingerprint":   testFingerprint,
		"content_uri":   "at://did:plc:abc/app.bsky.feed.post/3k44",
		"creation_type": 1,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp AttestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Verification)
	assert.Equal(t, testFingerprint, resp.Verification.Fingerprint)
	assert.Equal(t, "Self-attested", resp.Verification.Status)
	assert.Contains(t, resp.Message, "Human-created")
}

func TestAttestRequiresAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	router := newRouter(svc, nil, "")
	rec := doJSON(t, router, http.MethodPost, "/verify", map[string]any{
		"fingerprint":   testFingerprint,
		"content_uri":   "at://x",
		"creation_type": 1,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAttestValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	router := newRouter(svc, nil, "alice.bsky.social")

	cases := []struct {
		name string
		body map[string]any
	}{
		{name: "missing fingerprint", body: map[string]any{"content_uri": "at://x", "creation_type": 1}},
		{name: "missing content uri", body: map[string]any{"fingerprint": testFingerprint, "creation_type": 1}},
		{name: "unknown creation type", body: map[string]any{"fingerprint": testFingerprint, "content_uri": "at://x", "creation_type": 7}},
		{name: "malformed fingerprint", body: map[string]any{"fingerprint": "no-separator", "content_uri": "at://x", "creation_type": 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/verify", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAttestConflictMapsTo409(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		Attest(gomock.Any(), gomock.Any()).
		Return(models.VerificationRecord{}, dErrors.New(dErrors.CodeConflict, "content is already attested; vouch for it instead"))

	router := newRouter(svc, nil, "alice.bsky.social")
	rec := doJSON(t, router, http.MethodPost, "/verify", map[string]any{
		"fingerprint":   testFingerprint,
		"content_uri":   "at://x",
		"creation_type": 1,
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(dErrors.CodeConflict), resp["error"])
}

func TestVouchSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	record := testRecord()
	record.Vouches = 3
	record.Status = models.CommunityVouched
	svc.EXPECT().
		Vouch(gomock.Any(), domain.Fingerprint(testFingerprint), domain.ActorID("bob.bsky.social")).
		Return(record, nil)

	router := newRouter(svc, nil, "bob.bsky.social")
	rec := doJSON(t, router, http.MethodPost, "/vouch", map[string]any{"fingerprint": testFingerprint})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp VouchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Verification.Vouches)
	assert.Equal(t, "Community-vouched", resp.Verification.Status)
}

func TestSelfVouchMapsTo422(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		Vouch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.VerificationRecord{}, dErrors.New(dErrors.CodePolicyViolation, "cannot vouch for your own content"))

	router := newRouter(svc, nil, "alice.bsky.social")
	rec := doJSON(t, router, http.MethodPost, "/vouch", map[string]any{"fingerprint": testFingerprint})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		Lookup(gomock.Any(), domain.Fingerprint(testFingerprint)).
		Return(testRecord(), nil)

	router := newRouter(svc, nil, "")
	rec := doJSON(t, router, http.MethodGet, "/verification/"+testFingerprint, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp VerificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice.bsky.social", resp.Attester)
	assert.Equal(t, "Human-created", resp.CreationType)
}

func TestLookupNotFoundMapsTo404(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		Lookup(gomock.Any(), gomock.Any()).
		Return(models.VerificationRecord{}, dErrors.New(dErrors.CodeNotFound, "no attestation exists for this content"))

	router := newRouter(svc, nil, "")
	rec := doJSON(t, router, http.MethodGet, "/verification/"+testFingerprint, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStorageOutageMapsTo503(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		Lookup(gomock.Any(), gomock.Any()).
		Return(models.VerificationRecord{}, dErrors.New(dErrors.CodeUnavailable, "verification storage is unavailable, retry later"))

	router := newRouter(svc, nil, "")
	rec := doJSON(t, router, http.MethodGet, "/verification/"+testFingerprint, nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "true", resp["retryable"])
}

func TestHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		History(gomock.Any(), domain.ActorID("alice.bsky.social")).
		Return([]models.VerificationRecord{testRecord()}, nil)

	router := newRouter(svc, nil, "alice.bsky.social")
	rec := doJSON(t, router, http.MethodGet, "/verifications", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Verifications, 1)
}

func TestCertificateJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		Lookup(gomock.Any(), domain.Fingerprint(testFingerprint)).
		Return(testRecord(), nil)

	router := newRouter(svc, nil, "")
	rec := doJSON(t, router, http.MethodGet, "/certificate/"+testFingerprint, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2cf24dba5fb0a30e", resp["fingerprint"])
	assert.Equal(t, "metasignet.app/verify/2cf24dba5fb0a30e", resp["share_url"])
}

func TestCertificateHTML(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		Lookup(gomock.Any(), domain.Fingerprint(testFingerprint)).
		Return(testRecord(), nil)

	router := newRouter(svc, nil, "")
	rec := doJSON(t, router, http.MethodGet, "/certificate/"+testFingerprint+"?format=html", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "MetaSignet")
	assert.Contains(t, rec.Body.String(), "alice.bsky.social")
}

func TestComputeFingerprint(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	router := newRouter(svc, nil, "")
	rec := doJSON(t, router, http.MethodPost, "/fingerprint", map[string]any{"text": "hello"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp FingerprintResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	sum := sha256.Sum256([]byte("hello"))
	assert.Equal(t, hex.EncodeToString(sum[:])+":", resp.Fingerprint)
}

func TestComputeFingerprintFromPostURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	source := mocks.NewMockPostSource(ctrl)
	source.EXPECT().
		GetPost(gomock.Any(), "https://bsky.app/profile/alice.bsky.social/post/3k44").
		Return(&bluesky.Post{
			URI:  "at://did:plc:abc/app.bsky.feed.post/3k44",
			Text: "hello",
		}, nil)

	router := newRouter(svc, source, "")
	rec := doJSON(t, router, http.MethodPost, "/fingerprint", map[string]any{
		"post_url": "https://bsky.app/profile/alice.bsky.social/post/3k44",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp FingerprintResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	sum := sha256.Sum256([]byte("hello"))
	assert.Equal(t, hex.EncodeToString(sum[:])+":", resp.Fingerprint)
	assert.Equal(t, "at://did:plc:abc/app.bsky.feed.post/3k44", resp.ContentURI)
}

func TestComputeFingerprintRejectsPostURLWithInlineContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	router := newRouter(svc, nil, "")
	rec := doJSON(t, router, http.MethodPost, "/fingerprint", map[string]any{
		"post_url": "https://bsky.app/profile/alice.bsky.social/post/3k44",
		"text":     "hello",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComputeFingerprintRejectsBadImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	router := newRouter(svc, nil, "")
	rec := doJSON(t, router, http.MethodPost, "/fingerprint", map[string]any{
		"text":   "hello",
		"images": [][]byte{[]byte("not an image")},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
