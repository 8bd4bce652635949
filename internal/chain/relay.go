package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	contract "metasignet/contracts/chain"
)

// RelayRegistrar submits contract calls to an external signing relay over
// HTTP. The relay owns keys, gas, and transaction submission; this client
// only speaks the contract's method surface.
type RelayRegistrar struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// RelayOption configures the RelayRegistrar.
type RelayOption func(*RelayRegistrar)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) RelayOption {
	return func(r *RelayRegistrar) {
		r.httpClient = client
	}
}

// NewRelay creates a relay-backed registrar.
func NewRelay(baseURL, apiKey string, timeout time.Duration, opts ...RelayOption) *RelayRegistrar {
	r := &RelayRegistrar{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RelayRegistrar) RegisterContent(ctx context.Context, reg contract.Registration) (contract.Receipt, error) {
	return r.submit(ctx, "registerContent", reg)
}

func (r *RelayRegistrar) VouchForContent(ctx context.Context, contentHash string) (contract.Receipt, error) {
	return r.submit(ctx, "vouchForContent", map[string]string{"content_hash": contentHash})
}

func (r *RelayRegistrar) GetContentDetails(ctx context.Context, contentHash string) (contract.ContentMetadata, error) {
	endpoint := fmt.Sprintf("%s/contract/getContentDetails?content_hash=%s", r.baseURL, url.QueryEscape(contentHash))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return contract.ContentMetadata{}, fmt.Errorf("build contract query: %w", err)
	}
	r.setHeaders(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return contract.ContentMetadata{}, fmt.Errorf("query contract: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return contract.ContentMetadata{}, fmt.Errorf("contract query failed with status %d", resp.StatusCode)
	}

	var metadata contract.ContentMetadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return contract.ContentMetadata{}, fmt.Errorf("decode contract response: %w", err)
	}
	return metadata, nil
}

func (r *RelayRegistrar) submit(ctx context.Context, method string, payload any) (contract.Receipt, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return contract.Receipt{}, fmt.Errorf("encode %s call: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/contract/%s", r.baseURL, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return contract.Receipt{}, fmt.Errorf("build %s call: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	r.setHeaders(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return contract.Receipt{}, fmt.Errorf("submit %s call: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return contract.Receipt{}, fmt.Errorf("%s call failed with status %d", method, resp.StatusCode)
	}

	var receipt contract.Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return contract.Receipt{}, fmt.Errorf("decode %s receipt: %w", method, err)
	}
	return receipt, nil
}

func (r *RelayRegistrar) setHeaders(req *http.Request) {
	if r.apiKey != "" {
		req.Header.Set("X-API-Key", r.apiKey)
	}
}

var _ Registrar = (*RelayRegistrar)(nil)
