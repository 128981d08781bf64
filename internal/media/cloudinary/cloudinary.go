// Package cloudinary uploads files using the Cloudinary upload API.
package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/webtrio/webfolio/internal/krypto"
	"github.com/webtrio/webfolio/internal/media"
)

// DefaultBaseURL is the Cloudinary API host.
const DefaultBaseURL = "https://api.cloudinary.com"

// Settings contains the settings for the Cloudinary API.
type Settings struct {
	CloudName string
	APIKey    string
	APISecret krypto.Secret
	// Folder is the folder uploads are placed in, may be empty.
	Folder string
	// BaseURL overrides the API host, used in tests. Empty means
	// DefaultBaseURL.
	BaseURL string
}

// Uploader uploads files to Cloudinary.
type Uploader struct {
	client   *http.Client
	settings Settings

	// NowFunc is used to timestamp upload signatures.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

// NewUploader creates a new uploader.
func NewUploader(client *http.Client, s Settings) *Uploader {
	return &Uploader{
		client:   client,
		settings: s,
		NowFunc:  time.Now,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload signs and posts the file to the upload endpoint.
func (u *Uploader) Upload(ctx context.Context, filename string, r io.Reader) (media.Upload, error) {
	params := map[string]string{
		"public_id": uuid.NewString(),
		"timestamp": strconv.FormatInt(u.NowFunc().Unix(), 10),
	}
	if u.settings.Folder != "" {
		params["folder"] = u.settings.Folder
	}

	signature := signParams(params, string(u.settings.APISecret.SecretValue()))

	var body strings.Builder
	w := multipart.NewWriter(&body)

	for k, v := range params {
		if err := w.WriteField(k, v); err != nil {
			return media.Upload{}, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := w.WriteField("api_key", u.settings.APIKey); err != nil {
		return media.Upload{}, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := w.WriteField("signature", signature); err != nil {
		return media.Upload{}, fmt.Errorf("failed to write form field: %w", err)
	}

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return media.Upload{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return media.Upload{}, fmt.Errorf("failed to copy file into form: %w", err)
	}

	if err := w.Close(); err != nil {
		return media.Upload{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	base := u.settings.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	endpoint := fmt.Sprintf("%s/v1_1/%s/auto/upload", base, u.settings.CloudName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body.String()))
	if err != nil {
		return media.Upload{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return media.Upload{}, fmt.Errorf("failed to send request: %w", err)
	}

	defer resp.Body.Close()

	var res uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return media.Upload{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return media.Upload{}, fmt.Errorf("upload rejected: %d %v", resp.StatusCode, res.Error.Message)
	}

	return media.Upload{
		URL:      res.SecureURL,
		PublicID: res.PublicID,
	}, nil
}

// signParams produces the API signature: the params sorted by key,
// joined as k=v pairs with &, with the secret appended, hashed with
// SHA-1 and hex encoded.
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
