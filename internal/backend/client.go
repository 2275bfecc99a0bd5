// Package backend talks to a remote route persistence API.
package backend

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

	"github.com/sirupsen/logrus"

	"transit_admin/internal/models"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

// Client calls the persistence API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// NewClient builds a client for baseURL. A zero timeout means 15s.
func NewClient(baseURL string, timeout time.Duration, log logrus.FieldLogger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithField("component", "backend"),
	}
}

// NearestVertex returns the graph vertex closest to the coordinate.
func (c *Client) NearestVertex(ctx context.Context, lat, lon float64) (models.Vertex, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var v models.Vertex
	if err := c.do(ctx, http.MethodGet, "/nearest?"+q.Encode(), nil, &v); err != nil {
		return models.Vertex{}, fmt.Errorf("nearest vertex: %w", err)
	}
	return v, nil
}

// CreateRoute posts an assembled route.
func (c *Client) CreateRoute(ctx context.Context, req models.CreateRouteRequest) error {
	if err := c.do(ctx, http.MethodPost, "/create-bus-route", req, nil); err != nil {
		return fmt.Errorf("create bus route: %w", err)
	}
	return nil
}

// ListRouteTypes fetches the route type catalog.
func (c *Client) ListRouteTypes(ctx context.Context) ([]models.RouteType, error) {
	var body struct {
		BusTypes []models.RouteType `json:"busTypes"`
	}
	if err := c.do(ctx, http.MethodGet, "/get-all-bus-types", nil, &body); err != nil {
		return nil, fmt.Errorf("list bus types: %w", err)
	}
	return body.BusTypes, nil
}

// ListRouteEdges fetches every stored route, one row per edge.
func (c *Client) ListRouteEdges(ctx context.Context) ([]models.RouteEdgeView, error) {
	var body struct {
		Routes []models.RouteEdgeView `json:"routes"`
	}
	if err := c.do(ctx, http.MethodGet, "/get-all-bus-routes", nil, &body); err != nil {
		return nil, fmt.Errorf("list bus routes: %w", err)
	}
	return body.Routes, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       req.URL.Path,
		"status":     resp.StatusCode,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("Backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
