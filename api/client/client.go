// Package client is a small HTTP client for the admin API, used by
// provisioning scripts to configure a device over the network.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/epicweatherbox/weatherbox/api/models"
)

type AdminClient struct {
	baseURL string
	client  *http.Client
}

func NewAdminClient(baseURL string) *AdminClient {
	return &AdminClient{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

func (ac *AdminClient) do(method, path string, reqBody, respBody any) error {
	var payload io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		payload = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, ac.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ac.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error: %s", errResp.Error)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	if respBody != nil {
		if err := json.Unmarshal(body, respBody); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// GetStatus retrieves the device's full configuration view.
func (ac *AdminClient) GetStatus() (models.StatusResponse, error) {
	var status models.StatusResponse
	if err := ac.do(http.MethodGet, "/status", nil, &status); err != nil {
		return models.StatusResponse{}, err
	}
	return status, nil
}

func (ac *AdminClient) UpdateSettings(settings models.SettingsPayload) error {
	return ac.do(http.MethodPut, "/settings", settings, nil)
}

func (ac *AdminClient) UpdateTheme(themes models.ThemePayload) error {
	return ac.do(http.MethodPut, "/theme", themes, nil)
}

func (ac *AdminClient) AddLocation(loc models.LocationRequest) error {
	return ac.do(http.MethodPost, "/locations", loc, nil)
}

func (ac *AdminClient) RemoveLocation(index int) error {
	return ac.do(http.MethodDelete, fmt.Sprintf("/locations/%d", index), nil, nil)
}

func (ac *AdminClient) AddCountdown(event models.CountdownRequest) error {
	return ac.do(http.MethodPost, "/countdowns", event, nil)
}

func (ac *AdminClient) AddCustomScreen(screen models.CustomScreenRequest) error {
	return ac.do(http.MethodPost, "/screens", screen, nil)
}

func (ac *AdminClient) AddCarouselItem(item models.CarouselItemRequest) error {
	return ac.do(http.MethodPost, "/carousel", item, nil)
}

func (ac *AdminClient) RemoveCarouselItem(index int) error {
	return ac.do(http.MethodDelete, fmt.Sprintf("/carousel/%d", index), nil, nil)
}

func (ac *AdminClient) MoveCarouselItem(from, to int) error {
	return ac.do(http.MethodPut, "/carousel/move", models.MoveItemRequest{From: from, To: to}, nil)
}

func (ac *AdminClient) ForceRefresh() error {
	return ac.do(http.MethodPost, "/refresh", nil, nil)
}
