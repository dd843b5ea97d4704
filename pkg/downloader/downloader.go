// Package downloader fetches ONNX models and their tokenizer files from
// HuggingFace Hub for the convert CLI.
package downloader

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultAPIBase = "https://huggingface.co/api/models/"
	defaultCDNBase = "https://huggingface.co/"
)

// Result lists the files a download produced.
type Result struct {
	ModelPath      string
	TokenizerPaths []string
}

// HuggingFace downloads model repositories from HuggingFace Hub. The zero
// value is not usable; call New.
type HuggingFace struct {
	client  *http.Client
	apiBase string
	cdnBase string
	token   string
}

// Option configures a HuggingFace downloader.
type Option func(*HuggingFace)

// WithBaseURLs overrides the API and CDN endpoints; tests point them at
// local servers.
func WithBaseURLs(api, cdn string) Option {
	return func(h *HuggingFace) {
		h.apiBase = api
		h.cdnBase = cdn
	}
}

// WithToken sets the bearer token for gated or private repositories.
func WithToken(token string) Option {
	return func(h *HuggingFace) { h.token = token }
}

// New creates a HuggingFace downloader.
func New(opts ...Option) *HuggingFace {
	h := &HuggingFace{
		client:  &http.Client{},
		apiBase: defaultAPIBase,
		cdnBase: defaultCDNBase,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// modelInfo is the part of the Hub API response the downloader reads.
type modelInfo struct {
	ModelID  string `json:"modelId"`
	Siblings []struct {
		RPath string `json:"rfilename"`
	} `json:"siblings"`
}

// Download fetches the first ONNX model file of the repository plus any
// tokenizer files into destination. It fails when the repository holds no
// ONNX model.
func (h *HuggingFace) Download(modelID, destination string) (*Result, error) {
	info, err := h.fetchInfo(modelID)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, sibling := range info.Siblings {
		rPath := sibling.RPath
		switch {
		case strings.HasSuffix(rPath, ".onnx"):
			if result.ModelPath != "" {
				continue
			}
			path := filepath.Join(destination, filepath.Base(rPath))
			if err := h.fetchFile(modelID, rPath, path); err != nil {
				return nil, fmt.Errorf("failed to download ONNX model %s: %w", rPath, err)
			}
			result.ModelPath = path
		case strings.Contains(rPath, "tokenizer") || strings.HasSuffix(rPath, ".json") || strings.HasSuffix(rPath, ".txt"):
			path := filepath.Join(destination, filepath.Base(rPath))
			if err := h.fetchFile(modelID, rPath, path); err != nil {
				return nil, fmt.Errorf("failed to download tokenizer file %s: %w", rPath, err)
			}
			result.TokenizerPaths = append(result.TokenizerPaths, path)
		}
	}

	if result.ModelPath == "" {
		return nil, fmt.Errorf("no ONNX model found for model ID: %s", modelID)
	}
	return result, nil
}

func (h *HuggingFace) fetchInfo(modelID string) (*modelInfo, error) {
	req, err := http.NewRequest(http.MethodGet, h.apiBase+modelID, nil)
	if err != nil {
		return nil, err
	}
	h.authorize(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch model info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model info request returned %s", resp.Status)
	}

	info := &modelInfo{}
	if err := json.NewDecoder(resp.Body).Decode(info); err != nil {
		return nil, fmt.Errorf("failed to decode model info response: %w", err)
	}
	return info, nil
}

func (h *HuggingFace) fetchFile(modelID, rPath, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	url := strings.TrimSuffix(h.cdnBase, "/") + "/" + modelID + "/resolve/main/" + rPath
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	h.authorize(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s returned %s", url, resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", dest, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write file %s: %w", dest, err)
	}
	return out.Close()
}

func (h *HuggingFace) authorize(req *http.Request) {
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
}
