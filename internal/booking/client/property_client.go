package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PropertyClient answers "does unit U belong to property P" against the
// external property registry. Used only at booking creation.
type PropertyClient interface {
	UnitBelongsToProperty(ctx context.Context, token string, propertyID, unitID uuid.UUID) (bool, error)
}

type propertyClient struct {
	baseURL string
	http    *http.Client
}

func NewPropertyClient(baseURL string) PropertyClient {
	return &propertyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *propertyClient) UnitBelongsToProperty(ctx context.Context, token string, propertyID, unitID uuid.UUID) (bool, error) {
	url := fmt.Sprintf("%s/api/v1/properties/%s/units/%s/belongs", c.baseURL, propertyID, unitID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	// Forward the caller's credentials; the registry enforces its own access rules.
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("property service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return false, fmt.Errorf("property service: %w", err)
	}

	belongs, err := strconv.ParseBool(strings.TrimSpace(string(body)))
	if err != nil {
		return false, nil
	}
	return belongs, nil
}
