package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"transit_admin/internal/geo"
)

// MapboxConfig configures the Directions API client.
type MapboxConfig struct {
	BaseURL     string
	AccessToken string
	Profile     string
	Timeout     time.Duration
}

// MapboxClient requests driving geometry from the Mapbox Directions API.
type MapboxClient struct {
	baseURL    string
	token      string
	profile    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

type directionsResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Weight   float64        `json:"weight"`
		Duration float64        `json:"duration"`
		Distance float64        `json:"distance"`
		Geometry geo.LineString `json:"geometry"`
	} `json:"routes"`
}

// NewMapboxClient builds a client. An empty profile falls back to driving-traffic.
func NewMapboxClient(cfg MapboxConfig, log logrus.FieldLogger) *MapboxClient {
	profile := cfg.Profile
	if profile == "" {
		profile = "driving-traffic"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MapboxClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.AccessToken,
		profile:    profile,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithField("component", "mapbox"),
	}
}

// Route asks for GeoJSON geometry through the waypoints and returns the first route.
func (c *MapboxClient) Route(ctx context.Context, waypoints []geo.Location) (Route, error) {
	if len(waypoints) < 2 {
		return Route{}, fmt.Errorf("need at least 2 waypoints, got %d", len(waypoints))
	}

	coords := make([]string, len(waypoints))
	for i, wp := range waypoints {
		coords[i] = formatCoord(wp.Longitude) + "," + formatCoord(wp.Latitude)
	}

	q := url.Values{}
	q.Set("geometries", "geojson")
	q.Set("overview", "full")
	q.Set("access_token", c.token)
	endpoint := fmt.Sprintf("%s/directions/v5/mapbox/%s/%s?%s",
		c.baseURL, c.profile, strings.Join(coords, ";"), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Route{}, fmt.Errorf("build directions request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("directions request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Route{}, fmt.Errorf("read directions response: %w", err)
	}

	var dr directionsResponse
	if resp.StatusCode != http.StatusOK {
		// 422 with code NoSegment means a waypoint could not be snapped to a road.
		if json.Unmarshal(body, &dr) == nil && (dr.Code == "NoRoute" || dr.Code == "NoSegment") {
			return Route{}, fmt.Errorf("%w: %s", ErrNoRoute, dr.Message)
		}
		return Route{}, fmt.Errorf("mapbox error %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, &dr); err != nil {
		return Route{}, fmt.Errorf("decode directions response: %w", err)
	}
	if dr.Code != "Ok" || len(dr.Routes) == 0 {
		return Route{}, fmt.Errorf("%w: code %q", ErrNoRoute, dr.Code)
	}

	r := dr.Routes[0]
	if r.Geometry.Type == "" {
		return Route{}, errors.New("directions route has no geometry")
	}

	c.log.WithFields(logrus.Fields{
		"waypoints":   len(waypoints),
		"weight":      r.Weight,
		"coordinates": len(r.Geometry.Coordinates),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	}).Debug("Directions route received")

	return Route{
		Weight:   r.Weight,
		Duration: r.Duration,
		Distance: r.Distance,
		Geometry: r.Geometry,
	}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
