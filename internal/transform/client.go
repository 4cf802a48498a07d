package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to a Gemini-compatible chat completions relay. It issues no
// retries; retry policy, if ever wanted, belongs to the caller.
type Client struct {
	endpoint       string
	model          string
	defaultTimeout time.Duration
	log            *zap.Logger
}

func NewClient(endpoint, model string, defaultTimeout time.Duration, log *zap.Logger) *Client {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	return &Client{
		endpoint:       strings.TrimRight(endpoint, "/"),
		model:          model,
		defaultTimeout: defaultTimeout,
		log:            log,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Transform rewrites content per the fixed prompt. In client-proxy mode no
// network call is made; the delegation payload is handed back instead.
func (c *Client) Transform(ctx context.Context, content string, cfg Config) Result {
	prompt := buildPrompt(content)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	if cfg.UseClientProxy {
		c.log.Info("client proxy mode, returning delegation payload")
		return Delegated{Payload: DelegationPayload{
			UseClientProxy:  true,
			APIKey:          cfg.APIKey,
			Prompt:          prompt,
			OriginalContent: content,
			Model:           c.model,
			TimeoutSecs:     int(timeout / time.Second),
			UseRelayProxy:   cfg.UseRelayProxy,
		}}
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Failure{Reason: fmt.Sprintf("encode request: %v", err)}
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Failure{Reason: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.log.Error("transform request timed out", zap.Duration("timeout", timeout))
			return Failure{
				Reason:  fmt.Sprintf("请求超时（%d秒）: %v", int(timeout/time.Second), err),
				Timeout: true,
			}
		}
		c.log.Error("transform request failed", zap.Error(err))
		return Failure{Reason: fmt.Sprintf("API调用失败: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error("transform request rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return Failure{Reason: fmt.Sprintf("API调用失败: status %d", resp.StatusCode)}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Failure{Reason: fmt.Sprintf("decode response: %v", err)}
	}
	if len(out.Choices) == 0 {
		return Failure{Reason: "API返回内容为空"}
	}

	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return Failure{Reason: "API返回内容为空"}
	}

	return Rewritten{Text: Normalize(text)}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
