package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://graph.facebook.com/v21.0"
	defaultTimeout = 30 * time.Second
)

// Client is an Instagram Graph API client for content publishing.
// All calls are POSTs with form-encoded bodies.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (including API version)
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new Instagram API client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is the nested error object of a Graph API failure response
type APIError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`

	// HTTPStatus is the status of the failing response
	HTTPStatus int `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("instagram API error: %s (code: %d, status: %d)", e.Message, e.Code, e.HTTPStatus)
}

type errorResponse struct {
	Error APIError `json:"error"`
}

// CreateContainerInput describes one media container request
type CreateContainerInput struct {
	UserID         string
	AccessToken    string
	ImageURL       string
	VideoURL       string
	MediaType      string // "", STORIES, REELS, VIDEO, CAROUSEL
	Caption        string
	CoverURL       string
	Link           string
	IsCarouselItem bool
	Children       []string // container IDs for a CAROUSEL parent
}

type idResponse struct {
	ID string `json:"id"`
}

// CreateContainer creates a media container resource
func (c *Client) CreateContainer(ctx context.Context, in CreateContainerInput) (string, error) {
	form := url.Values{}
	form.Set("access_token", in.AccessToken)

	if in.ImageURL != "" {
		form.Set("image_url", in.ImageURL)
	}
	if in.VideoURL != "" {
		form.Set("video_url", in.VideoURL)
	}
	if in.MediaType != "" {
		form.Set("media_type", in.MediaType)
	}
	if in.Caption != "" && !in.IsCarouselItem {
		form.Set("caption", in.Caption)
	}
	if in.CoverURL != "" {
		form.Set("cover_url", in.CoverURL)
	}
	if in.Link != "" {
		form.Set("link", in.Link)
	}
	if in.IsCarouselItem {
		form.Set("is_carousel_item", "true")
	}
	if len(in.Children) > 0 {
		form.Set("children", strings.Join(in.Children, ","))
	}

	var out idResponse
	if err := c.postForm(ctx, fmt.Sprintf("%s/%s/media", c.baseURL, in.UserID), form, &out); err != nil {
		return "", err
	}

	return out.ID, nil
}

// PublishContainer publishes a processed container and returns the
// Instagram media id.
func (c *Client) PublishContainer(ctx context.Context, userID, accessToken, containerID string) (string, error) {
	form := url.Values{}
	form.Set("access_token", accessToken)
	form.Set("creation_id", containerID)

	var out idResponse
	if err := c.postForm(ctx, fmt.Sprintf("%s/%s/media_publish", c.baseURL, userID), form, &out); err != nil {
		return "", err
	}

	return out.ID, nil
}

// postForm executes a form-encoded POST and decodes the response
func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
			return &APIError{
				Message:    strings.TrimSpace(string(body)),
				HTTPStatus: resp.StatusCode,
			}
		}
		errResp.Error.HTTPStatus = resp.StatusCode
		return &errResp.Error
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
