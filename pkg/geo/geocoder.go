package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Location is the geocoding result for a free-text address.
type Location struct {
	Lat         float64
	Lon         float64
	CountryCode string // ISO 3166-1 alpha-2, upper case
}

// Geocoder resolves free-text addresses to coordinates and a country code.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Location, error)
}

// HTTPGeocoder calls a Nominatim-compatible search endpoint.
type HTTPGeocoder struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPGeocoder builds a geocoder against the given base URL
// (e.g. https://nominatim.openstreetmap.org).
func NewHTTPGeocoder(baseURL string) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Geocode resolves the address. Returns an error if the endpoint yields no
// result; the caller decides whether a request without coordinates is
// acceptable.
func (g *HTTPGeocoder) Geocode(ctx context.Context, address string) (*Location, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder: unexpected status %d", resp.StatusCode)
	}

	var out []struct {
		Lat     string `json:"lat"`
		Lon     string `json:"lon"`
		Address struct {
			CountryCode string `json:"country_code"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("geocoder: no result for %q", address)
	}

	lat, err := strconv.ParseFloat(out[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder: bad latitude %q", out[0].Lat)
	}
	lon, err := strconv.ParseFloat(out[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder: bad longitude %q", out[0].Lon)
	}

	return &Location{
		Lat:         lat,
		Lon:         lon,
		CountryCode: strings.ToUpper(out[0].Address.CountryCode),
	}, nil
}
