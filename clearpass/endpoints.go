// clearpass/endpoints.go
package clearpass

import (
	"context"
	"net/http"
	"net/url"

	"github.com/netaccessctl/go-clearpass-client/response"
)

const (
	endpointCollectionPath = "/api/endpoint"
	endpointByMACPath      = "/api/endpoint/mac-address/"

	// socialVIPAttribute must be present on every endpoint update for the onboarding
	// integration to accept the record, even when empty.
	socialVIPAttribute = "social_vip"
)

// Endpoint is a network device record keyed by MAC address.
type Endpoint struct {
	ID            int64          `json:"id,omitempty"`
	MACAddress    string         `json:"mac_address"`
	Description   string         `json:"description,omitempty"`
	Status        string         `json:"status,omitempty"`
	DeviceInsight string         `json:"device_insight_tags,omitempty"`
	RandomizedMAC bool           `json:"randomized_mac,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

// collection is the HAL envelope ClearPass wraps list responses in.
type collection[T any] struct {
	Embedded struct {
		Items []T `json:"items"`
	} `json:"_embedded"`
}

type endpointUpdate struct {
	Attributes map[string]string `json:"attributes"`
}

// ListEndpoints returns the MAC addresses of every endpoint whose social_username is identity.
func (c *Client) ListEndpoints(ctx context.Context, identity string) ([]string, error) {
	endpoints, err := c.GetEndpoints(ctx, identity)
	if err != nil {
		return nil, err
	}

	macs := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		macs = append(macs, endpoint.MACAddress)
	}
	return macs, nil
}

// GetEndpoints returns the full endpoint records whose social_username is identity.
func (c *Client) GetEndpoints(ctx context.Context, identity string) ([]Endpoint, error) {
	var out collection[Endpoint]
	if err := c.lookup(ctx, "endpoint", endpointCollectionPath, "social_username", identity, &out); err != nil {
		return nil, err
	}
	return out.Embedded.Items, nil
}

// DeleteEndpoints sends one DELETE per MAC address.
func (c *Client) DeleteEndpoints(ctx context.Context, macs []string) (*BatchResult, error) {
	return c.runBatch(ctx, "delete_endpoints", macs, func(ctx context.Context, mac string) (int, error) {
		return c.doRequest(ctx, "delete_endpoint", http.MethodDelete, endpointByMACPath+url.PathEscape(mac), nil, nil)
	})
}

// UpdateEndpoints sends one PATCH per MAC address carrying attrs. The social_vip
// attribute is always sent as an empty string, whatever attrs holds for it.
// attrs itself is not modified.
func (c *Client) UpdateEndpoints(ctx context.Context, macs []string, attrs map[string]string) (*BatchResult, error) {
	payload := endpointUpdate{Attributes: make(map[string]string, len(attrs)+1)}
	for name, value := range attrs {
		payload.Attributes[name] = value
	}
	payload.Attributes[socialVIPAttribute] = ""

	return c.runBatch(ctx, "update_endpoints", macs, func(ctx context.Context, mac string) (int, error) {
		return c.doRequest(ctx, "update_endpoint", http.MethodPatch, endpointByMACPath+url.PathEscape(mac), payload, nil)
	})
}

// lookup runs a filtered GET against a collection and decodes the envelope into out.
func (c *Client) lookup(ctx context.Context, resource, path, field, identity string, out any) error {
	id, err := ParseIdentity(identity)
	if err != nil {
		return err
	}

	filter, err := filterExpression(field, id)
	if err != nil {
		return err
	}

	query := url.Values{"filter": {filter}}
	statusCode, err := c.doRequest(ctx, "list_"+resource, http.MethodGet, path+"?"+query.Encode(), nil, out)
	if err != nil {
		if statusCode == 0 {
			return err
		}
		lookupErr := &LookupError{Resource: resource, Identity: identity, StatusCode: statusCode}
		lookupErr.APIError, _ = err.(*response.APIError)
		if lookupErr.APIError == nil {
			// 2xx with an undecodable body
			return err
		}
		return lookupErr
	}

	if statusCode != http.StatusOK {
		return &LookupError{Resource: resource, Identity: identity, StatusCode: statusCode}
	}
	return nil
}
