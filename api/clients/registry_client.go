package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/nitro-legacy/inventory-tooling/api"
	"github.com/nitro-legacy/inventory-tooling/solana"
)

// ErrNotFound is returned when the registry of an authority was never initialized.
var ErrNotFound = errors.New("registry not found")

// RegistryClient is a typed client of the registry API.
type RegistryClient struct {
	// ServerAddr is the base URL of the API server, e.g. http://localhost:8080
	ServerAddr string

	// HTTPClient is used for all requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

func NewRegistryClient(serverAddr string) *RegistryClient {
	return &RegistryClient{ServerAddr: serverAddr}
}

// RegistryAddress returns the registry PDA and bump of authority.
func (c *RegistryClient) RegistryAddress(ctx context.Context, authority solana.PublicKey) (*api.RegistryAddressResponse, error) {
	var resp api.RegistryAddressResponse
	if err := c.get(ctx, fmt.Sprintf("/api/v1/registry/%s/address", authority), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Registry returns the decoded registry account of authority.
func (c *RegistryClient) Registry(ctx context.Context, authority solana.PublicKey) (*api.RegistryResponse, error) {
	var resp api.RegistryResponse
	if err := c.get(ctx, fmt.Sprintf("/api/v1/registry/%s", authority), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClassSlots returns the slots of one class in the registry of authority.
func (c *RegistryClient) ClassSlots(ctx context.Context, authority solana.PublicKey, class uint8) (*api.ClassSlotsResponse, error) {
	var resp api.ClassSlotsResponse
	if err := c.get(ctx, fmt.Sprintf("/api/v1/registry/%s/slots/%d", authority, class), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *RegistryClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ServerAddr+path, nil)
	if err != nil {
		return err
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%s returned non-200 response: %d", path, resp.StatusCode)
		}
		var apiErr api.ErrorResponse
		msg := string(bodyBytes)
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		return fmt.Errorf("%s returned error %d: %s", path, resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not parse response: %w", err)
	}
	return nil
}
