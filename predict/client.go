// Package predict talks to the external plant-image prediction service.
//
// The service accepts a multipart form with a single "image" field at
// POST {base}/predict and answers {"prediction": "<label>", "confidence": 0.87}.
// Confidence is optional upstream and reported as zero when absent.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

var ErrEmptyPrediction = errors.New("prediction service returned no label")

type Prediction struct {
	Label      string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Predict uploads the image and returns the upstream label.
func (c *Client) Predict(ctx context.Context, image io.Reader, filename string) (Prediction, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename == "" {
		filename = "image.jpg"
	}
	part, err := mw.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return Prediction{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return Prediction{}, fmt.Errorf("copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Prediction{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", &body)
	if err != nil {
		return Prediction{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("call prediction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Prediction{}, fmt.Errorf("prediction service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var p Prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Prediction{}, fmt.Errorf("decode prediction: %w", err)
	}
	p.Label = strings.TrimSpace(p.Label)
	if p.Label == "" {
		return Prediction{}, ErrEmptyPrediction
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		p.Confidence = 0
	}
	return p, nil
}
