package protocol

import (
	"context"
	"time"

	"github.com/hoopmetrics/playbook/pkg/models"
)

// NotifyOptions carries per-message extras for a process notification.
type NotifyOptions struct {
	// NextSteps lists follow-up instructions rendered under the message.
	NextSteps []string

	// EnableActions asks the channel to render interactive approve/reject
	// affordances where supported.
	EnableActions bool
}

// Notifier translates lifecycle events for a named process into messages on
// an external channel. Implementations must never propagate transport
// failures to the caller: a failed or unconfigured send returns the zero
// value.
type Notifier interface {
	// NotifyProcessEvent sends a formatted message and returns the
	// correlation handle used to thread related messages, or "" when
	// sending is not configured or fails.
	NotifyProcessEvent(ctx context.Context, event models.ProcessEvent, opts NotifyOptions) string

	// NotifyWorkflowComplete sends a terminal success message, reusing the
	// workflow's existing thread when one was previously allocated.
	NotifyWorkflowComplete(ctx context.Context, workflowID, name string, duration time.Duration, stepCount int) string

	// NotifyWorkflowFailed sends a terminal failure message, reusing the
	// workflow's existing thread when one was previously allocated.
	NotifyWorkflowFailed(ctx context.Context, workflowID, name, failedStep, errMsg string, duration time.Duration) string

	// RequestApproval sends a pending-approval message with next-step
	// instructions. Fire-and-forget: it reports only whether the send
	// succeeded and never blocks waiting for a response.
	RequestApproval(ctx context.Context, processID, name, description string, timeoutMinutes int) bool

	// ClearThread forgets the correlation handle for a process so the next
	// notification starts a fresh thread.
	ClearThread(processID string)
}
