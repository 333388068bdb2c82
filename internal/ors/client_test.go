package ors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicenav/internal/domain"
)

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "Marina Beach, Chennai", r.URL.Query().Get("text"))
		assert.Equal(t, "1", r.URL.Query().Get("size"))
		assert.Equal(t, "secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[
			{"geometry":{"type":"Point","coordinates":[80.2825,13.0500]},
			 "properties":{"label":"Marina Beach, Chennai, TN, India"}}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", "secret", time.Second)
	got, err := c.Search(context.Background(), "Marina Beach, Chennai", 1)
	require.NoError(t, err)
	require.Len(t, got.Features, 1)
	assert.Equal(t, []float64{80.2825, 13.05}, got.Features[0].Geometry.Coordinates)
	assert.Equal(t, "Marina Beach, Chennai, TN, India", got.Features[0].Properties.Label)
}

func TestDirections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/directions/foot-walking/geojson", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Coordinates  [][]float64 `json:"coordinates"`
			Instructions bool        `json:"instructions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, [][]float64{{80.0456, 13.0418}, {80.2825, 13.05}}, body.Coordinates)
		assert.True(t, body.Instructions)

		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[{
			"geometry":{"coordinates":[[80.0456,13.0418],[80.1,13.045],[80.2825,13.05]]},
			"properties":{"segments":[{"distance":120.5,"duration":86.7,"steps":[
				{"distance":100,"duration":72,"type":11,"instruction":"Head east","way_points":[0,1]},
				{"distance":20.5,"duration":14.7,"type":10,"instruction":"Arrive","way_points":[2,2]}
			]}]}}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret", time.Second)
	got, err := c.Directions(context.Background(), ProfileFootWalking,
		domain.Coordinate{Lat: 13.0418, Lon: 80.0456},
		domain.Coordinate{Lat: 13.05, Lon: 80.2825})
	require.NoError(t, err)
	require.Len(t, got.Features, 1)
	require.Len(t, got.Features[0].Properties.Segments, 1)
	steps := got.Features[0].Properties.Segments[0].Steps
	require.Len(t, steps, 2)
	require.NotNil(t, steps[0].Instruction)
	assert.Equal(t, "Head east", *steps[0].Instruction)
	assert.Equal(t, []int{2, 2}, steps[1].WayPoints)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "nested", status: http.StatusNotFound, body: `{"error":{"code":2010,"message":"Could not find routable point"}}`, wantMsg: "Could not find routable point"},
		{name: "flat", status: http.StatusForbidden, body: `{"error":"Access to this API has been disallowed"}`, wantMsg: "Access to this API has been disallowed"},
		{name: "plain", status: http.StatusBadGateway, body: "upstream down", wantMsg: "upstream down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewClient(server.URL, "k", time.Second)
			_, err := c.Search(context.Background(), "x", 1)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "k", time.Second)
	_, err := c.Directions(context.Background(), ProfileFootWalking, domain.Coordinate{}, domain.Coordinate{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode openrouteservice response")
}
