// Package apiclient carries the HTTP plumbing shared by the back-end service
// clients: JSON round trips and multipart uploads with uniform error shapes.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const DefaultTimeout = 90 * time.Second

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// DoJSON performs one JSON request. in may be nil for bodyless methods; out
// may be nil when the response body is irrelevant.
func DoJSON(ctx context.Context, client *http.Client, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("apiclient: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return do(client, req, out)
}

// FilePart is one uploaded file in a multipart request.
type FilePart struct {
	Field    string
	Filename string
	Data     []byte
}

// DoMultipart performs a multipart/form-data POST with string fields and
// file parts.
func DoMultipart(ctx context.Context, client *http.Client, url string, fields map[string]string, files []FilePart, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("apiclient: write field %s: %w", k, err)
		}
	}
	for _, f := range files {
		name := f.Filename
		if name == "" {
			name = f.Field
		}
		part, err := mw.CreateFormFile(f.Field, name)
		if err != nil {
			return fmt.Errorf("apiclient: create file part %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return fmt.Errorf("apiclient: write file part %s: %w", f.Field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return do(client, req, out)
}

func do(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil {
			msg := apiErr.Message
			if msg == "" {
				msg = apiErr.Error
			}
			if msg != "" {
				return fmt.Errorf("api http %d: %s", resp.StatusCode, msg)
			}
		}
		return fmt.Errorf("api http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}

func JoinURL(base string, parts ...string) string {
	b := strings.TrimRight(base, "/")
	for _, p := range parts {
		b += "/" + strings.Trim(p, "/")
	}
	return b
}
