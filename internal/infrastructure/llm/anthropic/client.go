package anthropic

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/infrastructure/llm"
	apperrors "github.com/agentdeck/agentdeck/pkg/errors"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultVersion   = "2023-06-01"
	defaultSkillBeta = "skills-2025-10-02"
)

// Config holds Anthropic API connection settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Version   string
	SkillBeta string
}

// Client implements llm.Invoker against the Anthropic Messages API, and
// exposes the vendor Skills API used by the skill registry.
type Client struct {
	baseURL   string
	apiKey    string
	version   string
	skillBeta string
	client    *http.Client
	logger    *zap.Logger
}

// New creates an Anthropic API client.
func New(cfg Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	version := cfg.Version
	if version == "" {
		version = defaultVersion
	}
	skillBeta := cfg.SkillBeta
	if skillBeta == "" {
		skillBeta = defaultSkillBeta
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 300 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}

	return &Client{
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		version:   version,
		skillBeta: skillBeta,
		client:    &http.Client{Transport: transport},
		logger:    logger.With(zap.String("component", "anthropic")),
	}
}

var _ llm.Invoker = (*Client)(nil)

// Invoke implements llm.Invoker (blocking mode).
func (c *Client) Invoke(ctx context.Context, req llm.Request) (*llm.Result, error) {
	apiReq := c.buildAPIRequest(req)

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, apperrors.NewInvocationFailedError("marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewInvocationFailedError("create request", err)
	}
	c.setHeaders(httpReq, len(req.Skills) > 0)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewInvocationFailedError("HTTP request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewInvocationFailedError("read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewInvocationFailedError(
			fmt.Sprintf("Anthropic API error %d: %s", resp.StatusCode, truncate(string(respBody), 512)), nil)
	}

	var apiResp Response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, apperrors.NewInvocationFailedError("parse Anthropic response", err)
	}

	var output strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			output.WriteString(block.Text)
		}
	}

	return &llm.Result{
		Output:     output.String(),
		StopReason: apiResp.StopReason,
		Model:      apiResp.Model,
		Usage: entity.Usage{
			InputTokens:  apiResp.Usage.InputTokens,
			OutputTokens: apiResp.Usage.OutputTokens,
			TotalTokens:  apiResp.Usage.Total(),
		},
		SkillIDs: skillIDs(req.Skills),
	}, nil
}

// InvokeStream implements llm.Invoker (streaming mode) over Anthropic SSE.
func (c *Client) InvokeStream(ctx context.Context, req llm.Request) (<-chan llm.StreamEvent, error) {
	apiReq := c.buildAPIRequest(req)
	apiReq.Stream = true

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, apperrors.NewInvocationFailedError("marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewInvocationFailedError("create request", err)
	}
	c.setHeaders(httpReq, len(req.Skills) > 0)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewInvocationFailedError("HTTP request failed", err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, apperrors.NewInvocationFailedError(
			fmt.Sprintf("Anthropic API error %d: %s", resp.StatusCode, truncate(string(respBody), 512)), nil)
	}

	events := make(chan llm.StreamEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		// Force-close the body on cancellation so the scanner unblocks.
		streamDone := make(chan struct{})
		defer close(streamDone)
		go func() {
			select {
			case <-ctx.Done():
				c.logger.Info("Context cancelled, force-closing SSE stream", zap.Error(ctx.Err()))
				resp.Body.Close()
			case <-streamDone:
			}
		}()

		parseSSEStream(ctx, resp.Body, events, c.logger)
	}()

	return events, nil
}

// --- Skills API ---

// UploadSkill uploads a custom skill bundle directory and returns the
// vendor-assigned skill id.
func (c *Client) UploadSkill(ctx context.Context, displayTitle, dir string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("display_title", displayTitle); err != nil {
		return "", fmt.Errorf("write field: %w", err)
	}
	if err := addBundleFiles(writer, dir); err != nil {
		return "", fmt.Errorf("read skill bundle: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize upload body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/skills", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", c.version)
	httpReq.Header.Set("anthropic-beta", c.skillBeta)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("skill upload error %d: %s", resp.StatusCode, truncate(string(respBody), 512))
	}

	var created skillCreateResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("parse skill response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("skill upload returned no id")
	}
	return created.ID, nil
}

// ListSkills returns the vendor skill catalog.
func (c *Client) ListSkills(ctx context.Context) ([]VendorSkill, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/v1/skills", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", c.version)
	httpReq.Header.Set("anthropic-beta", c.skillBeta)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("skill list error %d: %s", resp.StatusCode, truncate(string(respBody), 512))
	}

	var listed skillListResponse
	if err := json.Unmarshal(respBody, &listed); err != nil {
		return nil, fmt.Errorf("parse skill list: %w", err)
	}
	return listed.Data, nil
}

// --- Internal ---

func (c *Client) setHeaders(req *http.Request, withSkills bool) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.version)
	if withSkills {
		req.Header.Set("anthropic-beta", c.skillBeta)
	}
}

func (c *Client) buildAPIRequest(req llm.Request) *Request {
	apiReq := &Request{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages: []Message{{
			Role:    "user",
			Content: []ContentBlock{{Type: "text", Text: req.Prompt}},
		}},
	}
	if apiReq.MaxTokens == 0 {
		apiReq.MaxTokens = 8192 // Anthropic requires explicit max_tokens
	}

	if len(req.Skills) > 0 {
		container := &Container{Skills: make([]SkillSpec, 0, len(req.Skills))}
		for _, ref := range req.Skills {
			container.Skills = append(container.Skills, SkillSpec{
				Type:    vendorSkillType(ref.Kind),
				SkillID: ref.VendorID,
			})
		}
		apiReq.Container = container
	}

	return apiReq
}

func vendorSkillType(kind entity.SkillKind) string {
	if kind == entity.SkillKindPrebuilt {
		return "anthropic"
	}
	return "custom"
}

func skillIDs(refs []entity.SkillRef) []string {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.VendorID)
	}
	return ids
}

func addBundleFiles(writer *multipart.Writer, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		part, err := writer.CreateFormFile("files[]", filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(part, f)
		return err
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
