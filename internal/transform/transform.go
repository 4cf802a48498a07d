// Package transform rewrites raw study-log content into polished report prose
// through a Gemini-compatible chat completions endpoint.
package transform

import (
	"fmt"
	"time"
)

// DefaultTimeout applies when a user has no timeout configured.
const DefaultTimeout = 15 * time.Second

// Config carries the per-run transform settings taken from the user's
// configuration snapshot.
type Config struct {
	APIKey string

	// UseClientProxy directs the caller to perform the API call itself
	// (browser-side) instead of the service issuing it. The pipeline then
	// returns a Delegated result and does not send.
	UseClientProxy bool

	// UseRelayProxy is forwarded on the delegation payload so the client
	// knows which route to call. Server-side requests always go through the
	// configured relay endpoint.
	UseRelayProxy bool

	Timeout time.Duration
}

// Result is the outcome of a transform attempt. Exactly one of Rewritten,
// Delegated or Failure is returned; callers switch exhaustively.
type Result interface {
	isResult()
}

// Rewritten carries the normalized rewritten text.
type Rewritten struct {
	Text string
}

// Delegated carries everything a client-side caller needs to perform the API
// call itself.
type Delegated struct {
	Payload DelegationPayload
}

// Failure reports a transform error. It never blocks delivery: the pipeline
// proceeds with the original content and records Reason alongside the
// delivery log entry.
type Failure struct {
	Reason  string
	Timeout bool
}

func (Rewritten) isResult() {}
func (Delegated) isResult() {}
func (Failure) isResult()   {}

// DelegationPayload mirrors the information the browser-side proxy expects.
type DelegationPayload struct {
	UseClientProxy  bool   `json:"use_client_proxy"`
	APIKey          string `json:"api_key"`
	Prompt          string `json:"prompt"`
	OriginalContent string `json:"original_content"`
	Model           string `json:"model"`
	TimeoutSecs     int    `json:"timeout"`
	UseRelayProxy   bool   `json:"use_relay_proxy"`
}

// buildPrompt wraps the raw content in the fixed instruction set. The wording
// matters: it forbids hedging, greetings and closing remarks so the reply can
// be dropped into the email body unedited.
func buildPrompt(content string) string {
	return fmt.Sprintf(`
    请根据以下内容，总结今天的学习要点，要求：
    1. 内容要详细具体,对各个要点的可能内容进行猜测
    2. 用1、2、3...的形式列出，直接给出要点，不要加尊敬的领导/同事等问候语
    3. 每个要点后面加上<br><br>标签换行
    4. 每个点的要简洁一些,以正式邮件的格式列出，但不要加结束语如"此致敬礼"等
    5. 不要出现"待补充"、"后续内容"等不确定的表述
    6. 绝对不要出现诸如"好的，根据您提供的内容，今天的学习要点总结如下"这样的表述
    7. 不要出现"可能"、"推测"之类的词语
    8. 不要添加任何引言和结束语，直接开始列举要点

    原始内容：
    %s
    `, content)
}
