package cloudinary

// Package cloudinary implements ports.MediaUploader against the
// Cloudinary HTTP upload API using signed uploads.

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/openfolio/portfolio-api/internal/ports"
)

var _ ports.MediaUploader = (*Uploader)(nil)

const defaultBaseURL = "https://api.cloudinary.com/v1_1"

// Config holds the Cloudinary account settings.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string

	// Folder is the destination folder for uploads; optional.
	Folder string

	// BaseURL overrides the API endpoint, used in tests.
	BaseURL string

	HTTPClient *http.Client // optional, defaults to a 60s-timeout client
}

// Uploader uploads images and returns their public CDN URL.
type Uploader struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	folder     string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// New constructs a Cloudinary uploader.
func New(cfg Config) (*Uploader, error) {
	if cfg.CloudName == "" {
		return nil, errors.New("cloudinary: cloud name is required")
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary: API key and secret are required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &Uploader{
		cloudName:  cfg.CloudName,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		folder:     cfg.Folder,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		now:        time.Now,
	}, nil
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the image to Cloudinary and returns its secure URL.
func (u *Uploader) Upload(ctx context.Context, filename string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", errors.New("cloudinary: content is empty")
	}

	timestamp := strconv.FormatInt(u.now().Unix(), 10)
	params := map[string]string{"timestamp": timestamp}
	if u.folder != "" {
		params["folder"] = u.folder
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range params {
		if err := writer.WriteField(k, v); err != nil {
			return "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if err := writer.WriteField("api_key", u.apiKey); err != nil {
		return "", fmt.Errorf("write form field api_key: %w", err)
	}
	if err := writer.WriteField("signature", u.sign(params)); err != nil {
		return "", fmt.Errorf("write form field signature: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("write file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", u.baseURL, u.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode upload response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := parsed.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("cloudinary upload failed: %s (status %d)", msg, resp.StatusCode)
	}

	url := parsed.SecureURL
	if url == "" {
		url = parsed.URL
	}
	if url == "" {
		return "", errors.New("cloudinary: upload response missing URL")
	}
	return url, nil
}

// sign produces the request signature: the signed params sorted by key,
// joined as key=value with &, with the API secret appended, SHA-1 hashed.
func (u *Uploader) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + u.apiSecret))
	return hex.EncodeToString(sum[:])
}
