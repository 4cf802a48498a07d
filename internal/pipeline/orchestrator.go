// Package pipeline drives one report run end to end: load settings, gate,
// extract the day's content, optionally transform it, assemble and send the
// email, and record the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dailyreport/internal/db"
	"dailyreport/internal/mail"
	"dailyreport/internal/metrics"
	"dailyreport/internal/models"
	"dailyreport/internal/plan"
	"dailyreport/internal/report"
	"dailyreport/internal/transform"
)

const previewLimit = 500

// Store is the persistence surface a run needs.
type Store interface {
	GetSettings(ctx context.Context, userID int64) (*models.UserSettings, error)
	GetPlan(ctx context.Context, userID int64, year, month int) (*models.MonthlyPlan, error)
	CreateLog(ctx context.Context, entry *models.EmailLog) error
}

// Transformer rewrites raw content; see the transform package for the result
// contract.
type Transformer interface {
	Transform(ctx context.Context, content string, cfg transform.Config) transform.Result
}

// Sender delivers an assembled message, reporting only success or failure.
type Sender interface {
	Send(msg mail.Message, server mail.ServerConfig) bool
}

// Options control one run.
type Options struct {
	// Date overrides "today". When set, the day-of-month gate is skipped.
	Date *time.Time
	// Force skips the activation and day-of-month gates.
	Force bool
	// Scheduled marks the run as scheduler-triggered in the delivery log.
	Scheduled bool
	// TransformTimeout overrides the user's configured transform timeout.
	TransformTimeout time.Duration
}

// Result is returned to the trigger (manual API call or scheduler).
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Delegation carries the client-proxy payload when the transform stage
	// directed the caller to perform the API call itself.
	Delegation *transform.DelegationPayload `json:"client_proxy_data,omitempty"`
	// Status mirrors the delivery log record for callers that track outcomes.
	Status models.ReportStatus `json:"-"`
}

// Orchestrator sequences the report stages. All collaborators are injected;
// it holds no mutable state, so concurrent runs for different users are safe.
type Orchestrator struct {
	store       Store
	transformer Transformer
	sender      Sender
	assembler   *report.Assembler
	loc         *time.Location
	log         *zap.Logger
}

func New(store Store, transformer Transformer, sender Sender, loc *time.Location, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:       store,
		transformer: transformer,
		sender:      sender,
		assembler:   report.NewAssembler(),
		loc:         loc,
		log:         log,
	}
}

// Run executes the pipeline for one user. Every terminal path writes exactly
// one delivery log record before returning, the panic path included.
func (o *Orchestrator) Run(ctx context.Context, userID int64, opts Options) (res Result) {
	recorded := false
	record := func(entry *models.EmailLog) {
		entry.UserID = userID
		entry.IsScheduled = opts.Scheduled
		if err := o.store.CreateLog(ctx, entry); err != nil {
			// Best effort: the secondary failure is logged but must not mask
			// the run's own outcome.
			o.log.Error("failed to write delivery log",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
		recorded = true
	}

	defer func() {
		if r := recover(); r != nil {
			o.log.Error("report run panicked",
				zap.Int64("user_id", userID),
				zap.Any("panic", r),
			)
			msg := fmt.Sprintf("发送报告时发生错误: %v", r)
			if !recorded {
				record(&models.EmailLog{Status: models.StatusFailed, ErrorMessage: msg})
			}
			res = Result{Success: false, Message: msg, Status: models.StatusFailed}
		}
	}()

	var targetDate time.Time
	if opts.Date != nil {
		targetDate = *opts.Date
	} else {
		targetDate = time.Now().In(o.loc)
	}

	// Step 1: settings.
	settings, err := o.store.GetSettings(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		msg := "用户设置不存在。请先完成设置。"
		record(&models.EmailLog{Status: models.StatusFailed, ErrorMessage: msg})
		return Result{Success: false, Message: msg, Status: models.StatusFailed}
	}
	if err != nil {
		msg := fmt.Sprintf("加载用户设置失败: %v", err)
		record(&models.EmailLog{Status: models.StatusFailed, ErrorMessage: msg})
		return Result{Success: false, Message: msg, Status: models.StatusFailed}
	}

	// Step 2: activation gate.
	if !opts.Force && !settings.IsActive {
		msg := "报告功能未激活。请在设置中激活。"
		record(&models.EmailLog{Status: models.StatusFailed, ErrorMessage: msg})
		return Result{Success: false, Message: msg, Status: models.StatusFailed}
	}

	// Step 3: day-of-month gate, skipped for forced runs and explicit dates.
	if !opts.Force && opts.Date == nil && len(settings.SendDays) > 0 {
		if !containsDay(settings.SendDays, targetDate.Day()) {
			msg := fmt.Sprintf("当前日期(%s)不在设置的发送日期列表中。", targetDate.Format("2006-01-02"))
			record(&models.EmailLog{Status: models.StatusFailed, ErrorMessage: msg})
			return Result{Success: false, Message: msg, Status: models.StatusFailed}
		}
	}

	// Step 4: plan lookup.
	monthlyPlan, err := o.store.GetPlan(ctx, userID, targetDate.Year(), int(targetDate.Month()))
	if errors.Is(err, db.ErrNotFound) {
		msg := fmt.Sprintf("未找到 %d年%d月 的月度计划。", targetDate.Year(), int(targetDate.Month()))
		record(&models.EmailLog{Status: models.StatusFailed, ErrorMessage: msg})
		return Result{Success: false, Message: msg, Status: models.StatusFailed}
	}
	if err != nil {
		msg := fmt.Sprintf("加载月度计划失败: %v", err)
		record(&models.EmailLog{Status: models.StatusFailed, ErrorMessage: msg})
		return Result{Success: false, Message: msg, Status: models.StatusFailed}
	}

	// Step 5: content extraction, exact date only.
	segment, err := plan.Extract(monthlyPlan.Content, targetDate)
	if err != nil {
		msg := fmt.Sprintf("在 %s 未找到学习内容。", targetDate.Format("2006-01-02"))
		record(&models.EmailLog{Status: models.StatusNoContent, ErrorMessage: msg})
		return Result{Success: false, Message: msg, Status: models.StatusNoContent}
	}
	content := segment.Text

	// Step 6: mail config completeness.
	if settings.EmailFrom == "" || settings.EmailPassword == "" || settings.EmailTo == "" ||
		settings.SMTPServer == "" || settings.SMTPPort == 0 {
		msg := "邮箱配置不完整，请在设置中完成配置。"
		record(&models.EmailLog{Status: models.StatusFailed, ErrorMessage: msg})
		return Result{Success: false, Message: msg, Status: models.StatusFailed}
	}

	// Step 7: transform, only when an API key is configured. A failure here
	// never blocks delivery; the run proceeds with the original content and
	// the reason rides along on the log entry.
	transformErr := ""
	if settings.GeminiAPIKey != "" {
		timeout := opts.TransformTimeout
		if timeout <= 0 && settings.GeminiTimeout > 0 {
			timeout = time.Duration(settings.GeminiTimeout) * time.Second
		}

		o.log.Info("transforming content",
			zap.Int64("user_id", userID),
			zap.Duration("timeout", timeout),
		)
		result := o.transformer.Transform(ctx, content, transform.Config{
			APIKey:         settings.GeminiAPIKey,
			UseClientProxy: settings.UseClientProxy,
			UseRelayProxy:  settings.UseRelayProxy,
			Timeout:        timeout,
		})

		switch r := result.(type) {
		case transform.Rewritten:
			content = r.Text
		case transform.Delegated:
			msg := "需要客户端代理调用API，请使用前端工具完成此操作"
			record(&models.EmailLog{Status: models.StatusFailed, ErrorMessage: msg})
			return Result{Success: false, Message: msg, Delegation: &r.Payload, Status: models.StatusFailed}
		case transform.Failure:
			metrics.TransformFailures.Inc()
			transformErr = fmt.Sprintf("Gemini处理失败: %s", r.Reason)
			o.log.Warn("transform failed, using original content",
				zap.Int64("user_id", userID),
				zap.Bool("timeout", r.Timeout),
				zap.String("reason", r.Reason),
			)
		}
	}

	// Step 8: assemble.
	subject := o.assembler.Subject(settings.UserName, targetDate)
	body, err := o.assembler.BodyFor(content, settings)
	if err != nil {
		msg := fmt.Sprintf("生成邮件内容失败: %v", err)
		record(&models.EmailLog{Status: models.StatusFailed, Subject: subject, ErrorMessage: msg})
		return Result{Success: false, Message: msg, Status: models.StatusFailed}
	}

	// Step 9: send.
	sent := o.sender.Send(mail.Message{
		Subject:  subject,
		HTMLBody: body,
		From:     settings.EmailFrom,
		To:       mail.SplitRecipients(settings.EmailTo),
	}, mail.ServerConfig{
		Host:     settings.SMTPServer,
		Port:     settings.SMTPPort,
		Username: settings.EmailFrom,
		Password: settings.EmailPassword,
	})

	if !sent {
		msg := "邮件发送失败。请检查邮箱设置。"
		record(&models.EmailLog{Status: models.StatusFailed, Subject: subject, ErrorMessage: msg})
		return Result{Success: false, Message: msg, Status: models.StatusFailed}
	}

	record(&models.EmailLog{
		Status:         models.StatusSuccess,
		Subject:        subject,
		ContentPreview: truncatePreview(content),
		ErrorMessage:   transformErr,
	})

	msg := fmt.Sprintf("报告已成功发送至 %s", settings.EmailTo)
	if transformErr != "" {
		msg += " [使用原始内容]"
	}
	return Result{Success: true, Message: msg, Status: models.StatusSuccess}
}

func containsDay(days []string, day int) bool {
	want := fmt.Sprintf("%d", day)
	for _, d := range days {
		if d == want {
			return true
		}
	}
	return false
}

func truncatePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLimit {
		return content
	}
	return string(runes[:previewLimit]) + "..."
}
