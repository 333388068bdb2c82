// Package ors is a small client for the OpenRouteService geocoding and
// directions APIs.
package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"voicenav/internal/domain"
)

const ProfileFootWalking = "foot-walking"

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Search runs a Pelias text search returning at most size features.
func (c *Client) Search(ctx context.Context, text string, size int) (GeocodeResponse, error) {
	q := url.Values{}
	q.Set("text", text)
	q.Set("size", strconv.Itoa(size))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/geocode/search?"+q.Encode(), nil)
	if err != nil {
		return GeocodeResponse{}, err
	}

	var out GeocodeResponse
	if err := c.do(req, &out); err != nil {
		return GeocodeResponse{}, err
	}
	return out, nil
}

// Directions requests a route with turn instructions between two points.
func (c *Client) Directions(ctx context.Context, profile string, from, to domain.Coordinate) (DirectionsResponse, error) {
	body, err := json.Marshal(directionsRequest{
		Coordinates: [][2]float64{
			{from.Lon, from.Lat},
			{to.Lon, to.Lat},
		},
		Instructions: true,
	})
	if err != nil {
		return DirectionsResponse{}, err
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", c.baseURL, url.PathEscape(profile))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return DirectionsResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out DirectionsResponse
	if err := c.do(req, &out); err != nil {
		return DirectionsResponse{}, err
	}
	return out, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json, application/geo+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("openrouteservice status=%d: %s", resp.StatusCode, errorMessage(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode openrouteservice response: %w", err)
	}
	return nil
}

// errorMessage pulls the message out of {"error": "..."} or
// {"error": {"code": n, "message": "..."}} bodies.
func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch v := eb.Error.(type) {
		case string:
			return v
		case map[string]any:
			if msg, ok := v["message"].(string); ok {
				return msg
			}
		}
	}
	return strings.TrimSpace(string(body))
}
