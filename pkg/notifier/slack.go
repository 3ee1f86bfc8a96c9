// Package notifier sends process lifecycle notifications to Slack, grouping
// related messages into threads via a bounded correlation cache.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hoopmetrics/playbook/pkg/models"
	"github.com/hoopmetrics/playbook/pkg/protocol"
)

const (
	defaultAPIURL      = "https://slack.com/api/chat.postMessage"
	defaultHTTPTimeout = 10 * time.Second

	// DefaultThreadCacheSize bounds the process-to-thread correlation map.
	DefaultThreadCacheSize = 1000
)

var statusColors = map[models.ProcessStatus]string{
	models.ProcessStatusStarted:         "#439FE0",
	models.ProcessStatusInProgress:      "#439FE0",
	models.ProcessStatusCompleted:       "good",
	models.ProcessStatusFailed:          "danger",
	models.ProcessStatusPendingApproval: "warning",
	models.ProcessStatusApproved:        "good",
	models.ProcessStatusRejected:        "danger",
}

var statusEmoji = map[models.ProcessStatus]string{
	models.ProcessStatusStarted:         ":arrow_forward:",
	models.ProcessStatusInProgress:      ":hourglass_flowing_sand:",
	models.ProcessStatusCompleted:       ":white_check_mark:",
	models.ProcessStatusFailed:          ":x:",
	models.ProcessStatusPendingApproval: ":raised_hand:",
	models.ProcessStatusApproved:        ":+1:",
	models.ProcessStatusRejected:        ":-1:",
}

// Config holds the Slack destination. An empty token or channel makes every
// send a graceful no-op.
type Config struct {
	BotToken string
	Channel  string
	APIURL   string

	// ThreadCacheSize caps the correlation cache; 0 uses the default.
	ThreadCacheSize int
}

// SlackNotifier implements protocol.Notifier against the Slack Web API.
// Transport failures are logged and surfaced only as zero-valued returns.
type SlackNotifier struct {
	cfg     Config
	client  *http.Client
	logger  *slog.Logger
	threads *threadCache
}

func NewSlackNotifier(cfg Config, logger *slog.Logger) *SlackNotifier {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}

	size := cfg.ThreadCacheSize
	if size <= 0 {
		size = DefaultThreadCacheSize
	}

	return &SlackNotifier{
		cfg:     cfg,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		logger:  logger.With("module", "slack_notifier"),
		threads: newThreadCache(size),
	}
}

func (n *SlackNotifier) configured() bool {
	return n.cfg.BotToken != "" && n.cfg.Channel != ""
}

// NotifyProcessEvent formats and sends a process lifecycle message. The
// first notification for a process allocates a thread handle; later ones
// reuse it so the channel groups them.
func (n *SlackNotifier) NotifyProcessEvent(ctx context.Context, event models.ProcessEvent, opts protocol.NotifyOptions) string {
	if !n.configured() {
		return ""
	}

	threadTS, _ := n.threads.Get(event.ProcessID)
	if event.ThreadTS != "" {
		threadTS = event.ThreadTS
	}

	msg := n.buildMessage(event, opts, threadTS)

	ts, err := n.post(ctx, msg)
	if err != nil {
		n.logger.Error("Failed to send process notification",
			"process_id", event.ProcessID,
			"status", event.Status,
			"error", err)

		return ""
	}

	if threadTS == "" && ts != "" {
		n.threads.Put(event.ProcessID, ts)
		threadTS = ts
	}

	return threadTS
}

// NotifyWorkflowComplete sends the terminal success message for a workflow,
// threading onto the workflow's existing conversation when present.
func (n *SlackNotifier) NotifyWorkflowComplete(ctx context.Context, workflowID, name string, duration time.Duration, stepCount int) string {
	return n.NotifyProcessEvent(ctx, models.ProcessEvent{
		ProcessID:   workflowID,
		ProcessName: name,
		Status:      models.ProcessStatusCompleted,
		Source:      models.SourceWorkflowEngine,
		Timestamp:   time.Now().UTC(),
		Metadata: map[string]any{
			"duration": duration.Round(time.Millisecond).String(),
			"steps":    stepCount,
		},
	}, protocol.NotifyOptions{})
}

// NotifyWorkflowFailed sends the terminal failure message for a workflow.
func (n *SlackNotifier) NotifyWorkflowFailed(ctx context.Context, workflowID, name, failedStep, errMsg string, duration time.Duration) string {
	return n.NotifyProcessEvent(ctx, models.ProcessEvent{
		ProcessID:   workflowID,
		ProcessName: name,
		Status:      models.ProcessStatusFailed,
		Source:      models.SourceWorkflowEngine,
		Timestamp:   time.Now().UTC(),
		Metadata: map[string]any{
			"failed_step": failedStep,
			"error":       errMsg,
			"duration":    duration.Round(time.Millisecond).String(),
		},
	}, protocol.NotifyOptions{})
}

// RequestApproval sends a pending-approval message. Fire-and-forget: the
// caller is not blocked waiting for a response.
func (n *SlackNotifier) RequestApproval(ctx context.Context, processID, name, description string, timeoutMinutes int) bool {
	handle := n.NotifyProcessEvent(ctx, models.ProcessEvent{
		ProcessID:   processID,
		ProcessName: name,
		Status:      models.ProcessStatusPendingApproval,
		Source:      models.SourceWorkflowEngine,
		Timestamp:   time.Now().UTC(),
		Metadata: map[string]any{
			"description":     description,
			"timeout_minutes": timeoutMinutes,
		},
	}, protocol.NotifyOptions{
		NextSteps: []string{
			"Review the step description above",
			fmt.Sprintf("Respond within %d minutes or the request lapses", timeoutMinutes),
		},
		EnableActions: true,
	})

	return handle != ""
}

// ClearThread forgets the correlation handle for a process.
func (n *SlackNotifier) ClearThread(processID string) {
	n.threads.Delete(processID)
}

type slackMessage struct {
	Channel     string            `json:"channel"`
	Text        string            `json:"text"`
	ThreadTS    string            `json:"thread_ts,omitempty"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color  string       `json:"color,omitempty"`
	Title  string       `json:"title,omitempty"`
	Text   string       `json:"text,omitempty"`
	Fields []slackField `json:"fields,omitempty"`
	Footer string       `json:"footer,omitempty"`
	TS     int64        `json:"ts,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackResponse struct {
	OK    bool   `json:"ok"`
	TS    string `json:"ts"`
	Error string `json:"error"`
}

func (n *SlackNotifier) buildMessage(event models.ProcessEvent, opts protocol.NotifyOptions, threadTS string) slackMessage {
	emoji := statusEmoji[event.Status]
	title := fmt.Sprintf("%s %s [%s]", emoji, event.ProcessName, event.Status)

	fields := make([]slackField, 0, len(event.Metadata)+1)
	fields = append(fields, slackField{Title: "Process", Value: event.ProcessID, Short: true})

	for key, value := range event.Metadata {
		fields = append(fields, slackField{
			Title: key,
			Value: fmt.Sprintf("%v", value),
			Short: true,
		})
	}

	attachment := slackAttachment{
		Color:  statusColors[event.Status],
		Title:  title,
		Fields: fields,
		Footer: string(event.Source),
	}

	if !event.Timestamp.IsZero() {
		attachment.TS = event.Timestamp.Unix()
	}

	if len(opts.NextSteps) > 0 {
		text := "*Next steps:*"
		for _, step := range opts.NextSteps {
			text += "\n• " + step
		}

		attachment.Text = text
	}

	return slackMessage{
		Channel:     n.cfg.Channel,
		Text:        title,
		ThreadTS:    threadTS,
		Attachments: []slackAttachment{attachment},
	}
}

func (n *SlackNotifier) post(ctx context.Context, msg slackMessage) (string, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+n.cfg.BotToken)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack request failed: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read slack response: %w", err)
	}

	var parsed slackResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode slack response: %w", err)
	}

	if !parsed.OK {
		return "", fmt.Errorf("slack rejected message: %s", parsed.Error)
	}

	return parsed.TS, nil
}
