package geocode

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// NominatimClient resolves free-text Lagos place names to coordinates via
// the OpenStreetMap Nominatim geocoding service.
type NominatimClient struct {
	serviceURL string
	userAgent  string
	client     *http.Client
}

// Result is a resolved coordinate pair for a place query.
type Result struct {
	Latitude  float64
	Longitude float64
	Display   string
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatimClient creates a geocoding client. An empty serviceURL selects
// the public Nominatim instance.
func NewNominatimClient(serviceURL string) *NominatimClient {
	if serviceURL == "" {
		serviceURL = "https://nominatim.openstreetmap.org"
	}

	return &NominatimClient{
		serviceURL: serviceURL,
		userAgent:  "crimewatch-lagos",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Geocode resolves a location within Lagos. The second return value is false
// when the service had no match; callers then fall back to a default point.
func (gc *NominatimClient) Geocode(location string) (Result, bool, error) {
	if location == "" {
		return Result{}, false, nil
	}

	query := url.Values{}
	query.Set("q", fmt.Sprintf("%s, Lagos, Nigeria", location))
	query.Set("format", "json")
	query.Set("limit", "1")

	req, err := http.NewRequest("GET", gc.serviceURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return Result{}, false, fmt.Errorf("failed to create request: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", gc.userAgent)

	resp, err := gc.client.Do(req)
	if err != nil {
		return Result{}, false, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return Result{}, false, fmt.Errorf("geocoding service returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Result{}, false, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(places) == 0 {
		return Result{}, false, nil
	}

	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return Result{}, false, fmt.Errorf("geocoding service returned malformed coordinates")
	}

	return Result{Latitude: lat, Longitude: lon, Display: places[0].DisplayName}, true, nil
}
