package e2e

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterSteps registers all step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^the MetaSignet server is running$`, tc.serverIsRunning)
	ctx.Step(`^an authenticated user "([^"]*)"$`, tc.authenticatedUser)

	ctx.Step(`^"([^"]*)" attests content "([^"]*)" as creation type (\d+)$`, tc.attestContent)
	ctx.Step(`^"([^"]*)" vouches for that content$`, tc.vouchForContent)
	ctx.Step(`^an anonymous user vouches for content "([^"]*)"$`, tc.anonymousVouch)
	ctx.Step(`^anyone looks up content "([^"]*)"$`, tc.lookupContent)
	ctx.Step(`^anyone fetches the certificate for that content$`, tc.fetchCertificate)
	ctx.Step(`^"([^"]*)" lists their verifications$`, tc.listVerifications)

	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.responseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, tc.responseFieldShouldEqual)
}

// fingerprintOf computes the text-only fingerprint the same way the service
// does, so scenarios can reference content by its text.
func fingerprintOf(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:]) + ":"
}

func (tc *TestContext) serverIsRunning(context.Context) error {
	return tc.GET("", "/health/live")
}

func (tc *TestContext) authenticatedUser(_ context.Context, actor string) error {
	return tc.IssueToken(actor)
}

func (tc *TestContext) attestContent(_ context.Context, actor, text string, creationType int) error {
	fp := fingerprintOf(text)
	tc.lastFingerprint = fp
	return tc.POST(actor, "/verify", map[string]any{
		"fingerprint":   fp,
		"content_uri":   "https://bsky.app/profile/" + actor + "/post/demo",
		"creation_type": creationType,
	})
}

func (tc *TestContext) vouchForContent(_ context.Context, actor string) error {
	if tc.lastFingerprint == "" {
		return fmt.Errorf("no content has been attested in this scenario")
	}
	return tc.POST(actor, "/vouch", map[string]any{"fingerprint": tc.lastFingerprint})
}

func (tc *TestContext) anonymousVouch(_ context.Context, text string) error {
	return tc.POST("", "/vouch", map[string]any{"fingerprint": fingerprintOf(text)})
}

func (tc *TestContext) lookupContent(_ context.Context, text string) error {
	return tc.GET("", "/verification/"+url.PathEscape(fingerprintOf(text)))
}

func (tc *TestContext) fetchCertificate(context.Context) error {
	if tc.lastFingerprint == "" {
		return fmt.Errorf("no content has been attested in this scenario")
	}
	return tc.GET("", "/certificate/"+url.PathEscape(tc.lastFingerprint))
}

func (tc *TestContext) listVerifications(_ context.Context, actor string) error {
	return tc.GET(actor, "/verifications")
}

func (tc *TestContext) responseStatusShouldBe(_ context.Context, expected int) error {
	if tc.LastResponse == nil {
		return fmt.Errorf("no response recorded")
	}
	if tc.LastResponse.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d (body: %s)", expected, tc.LastResponse.StatusCode, string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) responseShouldContain(_ context.Context, expected string) error {
	if !strings.Contains(string(tc.LastResponseBody), expected) {
		return fmt.Errorf("response does not contain %q (body: %s)", expected, string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) responseFieldShouldEqual(_ context.Context, path, expected string) error {
	actual, err := tc.ResponseField(path)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("expected field %q to equal %q, got %q", path, expected, actual)
	}
	return nil
}
