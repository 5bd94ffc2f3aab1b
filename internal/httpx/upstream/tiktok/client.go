package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL       = "https://open.tiktokapis.com/v2"
	defaultTimeout       = 30 * time.Second
	defaultUploadTimeout = 120 * time.Second

	// Files up to this size go up in a single chunk
	singleChunkLimit = 64 * 1024 * 1024
	// Larger files are split into chunks of this size
	uploadChunkSize = 10 * 1024 * 1024
)

// Client is a TikTok Content Posting API client. Chunk uploads run on
// their own client with a longer timeout than regular API calls.
type Client struct {
	baseURL      string
	clientKey    string
	clientSecret string
	httpClient   *http.Client
	uploadClient *http.Client
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithTimeout sets the per-call timeout for API requests
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithUploadTimeout sets the per-chunk timeout for file uploads
func WithUploadTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.uploadClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client for API requests
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new TikTok API client
func New(clientKey, clientSecret string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      defaultBaseURL,
		clientKey:    clientKey,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		uploadClient: &http.Client{
			Timeout: defaultUploadTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a non-ok TikTok API error
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`

	// HTTPStatus is the status of the failing response
	HTTPStatus int `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tiktok API error: %s (code: %s, status: %d)", e.Message, e.Code, e.HTTPStatus)
}

// IsAuthError reports whether the error means the access token is no
// longer valid and a refresh should be attempted.
func (e *APIError) IsAuthError() bool {
	return e.HTTPStatus == http.StatusUnauthorized || e.Code == "access_token_invalid"
}

// envelope is the common response shape: data plus an error object
// whose code is "ok" on success.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error APIError        `json:"error"`
}

// CreatorInfo describes the posting constraints of the account
type CreatorInfo struct {
	CreatorUsername     string   `json:"creator_username"`
	CreatorNickname     string   `json:"creator_nickname"`
	PrivacyLevelOptions []string `json:"privacy_level_options"`
	CommentDisabled     bool     `json:"comment_disabled"`
	DuetDisabled        bool     `json:"duet_disabled"`
	StitchDisabled      bool     `json:"stitch_disabled"`
	MaxVideoDuration    float64  `json:"max_video_post_duration_sec"`
}

// QueryCreatorInfo fetches the account's posting constraints
func (c *Client) QueryCreatorInfo(ctx context.Context, accessToken string) (*CreatorInfo, error) {
	var info CreatorInfo
	err := c.postJSON(ctx, "/post/publish/creator_info/query/", accessToken, struct{}{}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// PostInfo is the post_info block of a direct-post init request
type PostInfo struct {
	Title          string `json:"title"`
	PrivacyLevel   string `json:"privacy_level"`
	DisableComment bool   `json:"disable_comment"`
	DisableDuet    bool   `json:"disable_duet"`
	DisableStitch  bool   `json:"disable_stitch"`
}

// SourceInfo describes where the video bytes come from
type SourceInfo struct {
	Source          string `json:"source"` // FILE_UPLOAD or PULL_FROM_URL
	VideoSize       int64  `json:"video_size,omitempty"`
	ChunkSize       int64  `json:"chunk_size,omitempty"`
	TotalChunkCount int    `json:"total_chunk_count,omitempty"`
	VideoURL        string `json:"video_url,omitempty"`
}

// InitResult is the outcome of a direct-post init
type InitResult struct {
	PublishID string `json:"publish_id"`
	UploadURL string `json:"upload_url"`
}

// InitDirectPost starts a direct-post upload and returns the publish id
// and, for FILE_UPLOAD, the upload URL.
func (c *Client) InitDirectPost(ctx context.Context, accessToken string, post PostInfo, source SourceInfo) (*InitResult, error) {
	body := struct {
		PostInfo   PostInfo   `json:"post_info"`
		SourceInfo SourceInfo `json:"source_info"`
	}{PostInfo: post, SourceInfo: source}

	var out InitResult
	if err := c.postJSON(ctx, "/post/publish/video/init/", accessToken, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TokenPair is the outcome of a refresh-token exchange
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RefreshToken exchanges a refresh token for a new token pair.
// The OAuth endpoint responds with a flat body, not the data/error
// envelope.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("client_key", c.clientKey)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var out struct {
		TokenPair
		ErrorCode        string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	if resp.StatusCode >= 400 || out.ErrorCode != "" || out.AccessToken == "" {
		return nil, &APIError{
			Code:       out.ErrorCode,
			Message:    out.ErrorDescription,
			HTTPStatus: resp.StatusCode,
		}
	}

	return &out.TokenPair, nil
}

// PlanChunks computes the chunk size and count for a video upload
func PlanChunks(size int64) (chunkSize int64, totalChunks int) {
	if size <= singleChunkLimit {
		return size, 1
	}
	chunkSize = uploadChunkSize
	totalChunks = int((size + chunkSize - 1) / chunkSize)
	return chunkSize, totalChunks
}

// UploadFile PUTs the file to the upload URL in Content-Range chunks.
// The last chunk carries the remainder.
func (c *Client) UploadFile(ctx context.Context, uploadURL string, f *os.File, size, chunkSize int64, totalChunks int) error {
	for i := 0; i < totalChunks; i++ {
		start := int64(i) * chunkSize
		end := start + chunkSize
		if i == totalChunks-1 {
			end = size
		}

		if _, err := f.Seek(start, io.SeekStart); err != nil {
			return fmt.Errorf("seeking chunk %d: %w", i, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL,
			io.LimitReader(f, end-start))
		if err != nil {
			return fmt.Errorf("creating chunk request: %w", err)
		}
		req.ContentLength = end - start
		req.Header.Set("Content-Type", "video/mp4")
		req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end-1, size))

		resp, err := c.uploadClient.Do(req)
		if err != nil {
			return fmt.Errorf("uploading chunk %d: %w", i, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 400 {
			return &APIError{
				Message:    strings.TrimSpace(string(body)),
				HTTPStatus: resp.StatusCode,
			}
		}
	}

	return nil
}

// postJSON executes an authenticated JSON POST and decodes the data
// field of the envelope into out.
func (c *Client) postJSON(ctx context.Context, path, accessToken string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{
			Message:    strings.TrimSpace(string(raw)),
			HTTPStatus: resp.StatusCode,
		}
	}
	if resp.StatusCode >= 400 || (env.Error.Code != "" && env.Error.Code != "ok") {
		env.Error.HTTPStatus = resp.StatusCode
		return &env.Error
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
	}

	return nil
}
