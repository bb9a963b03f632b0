// Package upload submits a built sample bundle to the QCI sample-ingestion
// API. One Uploader performs exactly one upload; there is no retry, because
// the ingestion endpoint is not guaranteed to deduplicate repeated requests.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/moka-guys/qiagen-upload/internal/config"
	"github.com/moka-guys/qiagen-upload/internal/qiaoauth"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// StatusSuccess is the Result status for an accepted upload.
const StatusSuccess = "success"

// Result reports the outcome of an accepted upload.
type Result struct {
	// Status is StatusSuccess; rejected uploads surface as *UploadError instead.
	Status string
	// ServerMessage is the confirmation payload returned by the ingestion API.
	ServerMessage string
}

// UploadError indicates a transport failure or a server-side rejection of the
// sample upload. The local ZIP is left in place for manual resubmission.
type UploadError struct {
	// StatusCode optionally records the HTTP status of the failed call.
	StatusCode int
	// Message is a human readable description of the failure.
	Message string
}

func (e *UploadError) Error() string {
	if e == nil {
		return "upload: sample upload failed"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("upload: sample upload failed: %d %s", e.StatusCode, e.Message)
	}
	return "upload: sample upload failed: " + e.Message
}

// Uploader performs the multipart upload to the ingestion endpoint.
type Uploader struct {
	httpClient *http.Client
	endpoint   string
}

// NewUploader creates an Uploader from the run configuration.
func NewUploader(cfg *config.Config) *Uploader {
	return &Uploader{
		httpClient: cfg.HTTPClient(),
		endpoint:   cfg.SampleEndpoint,
	}
}

// Upload sends the bundle ZIP as a multipart form upload authorized with the
// access token. Success requires a 2xx response carrying a parseable JSON
// confirmation; anything else is an *UploadError.
func (u *Uploader) Upload(ctx context.Context, token *qiaoauth.Token, zipPath string) (*Result, error) {
	archive, err := os.Open(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle %s: %w", zipPath, err)
	}
	defer func() {
		_ = archive.Close()
	}()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(zipPath)))
	header.Set("Content-Type", "application/zip")
	part, err := form.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload form: %w", err)
	}
	if _, err = io.Copy(part, archive); err != nil {
		return nil, fmt.Errorf("failed to read bundle %s: %w", zipPath, err)
	}
	if err = form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalise upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", token.AuthorizationValue())
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	log.Infof("Uploading %s to sample ingestion endpoint", filepath.Base(zipPath))
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, &UploadError{Message: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UploadError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read response body: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := strings.TrimSpace(string(respBody))
		if message == "" {
			message = resp.Status
		}
		return nil, &UploadError{StatusCode: resp.StatusCode, Message: message}
	}
	if !gjson.ValidBytes(respBody) {
		return nil, &UploadError{StatusCode: resp.StatusCode, Message: "server confirmation is not valid JSON"}
	}

	result := &Result{
		Status:        StatusSuccess,
		ServerMessage: strings.TrimSpace(string(respBody)),
	}
	log.Infof("Sample upload accepted: %s", result.ServerMessage)
	return result, nil
}
