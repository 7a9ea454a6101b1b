// Package progress mediates status changes of a single grant application:
// it applies them optimistically, gates outcome decisions behind an explicit
// accept/reject confirmation and rolls back when the backend refuses.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"grantiv/internal/pipeline"
	"grantiv/internal/session"
)

// FailureMessage is shown to the user when the backend refuses a transition.
const FailureMessage = "Failed to update status"

var (
	// ErrNotInteractive is returned for step clicks on a read-only controller.
	ErrNotInteractive = errors.New("progress controller is not interactive")

	// ErrNoPendingConfirmation is returned by Resolve when nothing awaits a decision.
	ErrNoPendingConfirmation = errors.New("no transition awaiting confirmation")

	// ErrInvalidDecision is returned for decisions other than accept or reject.
	ErrInvalidDecision = errors.New("invalid decision")
)

// Updater performs the remote status mutation.
type Updater interface {
	UpdateApplicationStatus(ctx context.Context, applicationID string, status pipeline.Status) error
}

// Invalidator drops cached application lists after a committed transition.
type Invalidator interface {
	InvalidateApplications(ctx context.Context)
}

// Notifier surfaces a dismissible, non-blocking error to the user.
type Notifier interface {
	NotifyError(applicationID, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(applicationID, message string)

// NotifyError calls f.
func (f NotifierFunc) NotifyError(applicationID, message string) {
	f(applicationID, message)
}

// Decision is the user's answer to an outcome confirmation.
type Decision int

const (
	DecisionAccept Decision = iota + 1
	DecisionReject
)

// Status returns the status a decision resolves to.
func (d Decision) Status() (pipeline.Status, error) {
	switch d {
	case DecisionAccept:
		return pipeline.StatusAwarded, nil
	case DecisionReject:
		return pipeline.StatusRejected, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidDecision, int(d))
	}
}

// TransitionError reports a transition the backend refused.
type TransitionError struct {
	ApplicationID string
	Target        pipeline.Status
	Err           error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("update status of %s to %s: %v", e.ApplicationID, e.Target, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Options configures a Controller.
type Options struct {
	// Interactive enables RequestStatusChange from step clicks.
	Interactive bool

	// RequireConfirmation lists target statuses that must be confirmed with
	// an accept/reject decision. Nil means {AWARDED}.
	RequireConfirmation []pipeline.Status

	Invalidator Invalidator
	Notifier    Notifier
	Logger      *slog.Logger
}

// Controller holds the displayed status of one application. It is safe for
// concurrent use; the remote call runs without holding the lock.
type Controller struct {
	mu            sync.Mutex
	applicationID string
	authoritative pipeline.Status
	local         pipeline.Status
	pending       *pipeline.Status

	interactive bool
	confirm     map[pipeline.Status]struct{}
	updater     Updater
	session     *session.Session
	invalidator Invalidator
	notifier    Notifier
	logger      *slog.Logger
}

// New creates a controller for an application currently in status.
func New(applicationID string, status pipeline.Status, updater Updater, sess *session.Session, opts Options) (*Controller, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", pipeline.ErrInvalidStatus, string(status))
	}
	if updater == nil {
		return nil, fmt.Errorf("progress controller requires an updater")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gated := opts.RequireConfirmation
	if gated == nil {
		gated = []pipeline.Status{pipeline.StatusAwarded}
	}
	confirm := make(map[pipeline.Status]struct{}, len(gated))
	for _, s := range gated {
		confirm[s] = struct{}{}
	}

	return &Controller{
		applicationID: applicationID,
		authoritative: status,
		local:         status,
		interactive:   opts.Interactive,
		confirm:       confirm,
		updater:       updater,
		session:       sess,
		invalidator:   opts.Invalidator,
		notifier:      opts.Notifier,
		logger:        logger.With(slog.String("application_id", applicationID)),
	}, nil
}

// ApplicationID returns the id of the controlled application.
func (c *Controller) ApplicationID() string {
	return c.applicationID
}

// Status returns the displayed status. While a confirmation is open this is
// still the prior status.
func (c *Controller) Status() pipeline.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.local
}

// Authoritative returns the last status the backend accepted.
func (c *Controller) Authoritative() pipeline.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authoritative
}

// Pending returns the status awaiting confirmation, if any.
func (c *Controller) Pending() (pipeline.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return "", false
	}
	return *c.pending, true
}

// Descriptor returns the render-time descriptor of the displayed status.
func (c *Controller) Descriptor() pipeline.Descriptor {
	// local is validated on every assignment.
	d, _ := pipeline.Describe(c.Status())
	return d
}

// Sync replaces both displayed and authoritative status with a freshly
// fetched value and drops any open confirmation.
func (c *Controller) Sync(status pipeline.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", pipeline.ErrInvalidStatus, string(status))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authoritative = status
	c.local = status
	c.pending = nil
	return nil
}

// RequestStatusChange handles a click on the labelled pipeline step.
func (c *Controller) RequestStatusChange(ctx context.Context, stepLabel string) Result {
	if !c.interactive {
		return c.refuse(ErrNotInteractive)
	}
	target, err := pipeline.DefaultStatusForStep(stepLabel)
	if err != nil {
		return c.refuse(err)
	}
	return c.RequestStatus(ctx, target)
}

// RequestStatus asks for a transition to target. Gated targets open a
// confirmation instead of changing anything.
func (c *Controller) RequestStatus(ctx context.Context, target pipeline.Status) Result {
	if !target.IsValid() {
		return c.refuse(fmt.Errorf("%w: %q", pipeline.ErrInvalidStatus, string(target)))
	}
	if !c.session.Active() {
		return c.refuse(session.ErrNoSession)
	}

	if _, gated := c.confirm[target]; gated {
		c.mu.Lock()
		c.pending = &target
		current := c.local
		c.mu.Unlock()

		c.logger.Debug("awaiting confirmation", slog.String("target", target.String()))
		return Result{
			Outcome:  OutcomeAwaitingConfirmation,
			Status:   current,
			Previous: current,
			Target:   target,
		}
	}
	return c.commit(ctx, target)
}

// Resolve answers an open confirmation and commits the chosen outcome.
func (c *Controller) Resolve(ctx context.Context, decision Decision) Result {
	target, err := decision.Status()
	if err != nil {
		return c.refuse(err)
	}

	c.mu.Lock()
	open := c.pending != nil
	c.mu.Unlock()
	if !open {
		return c.refuse(ErrNoPendingConfirmation)
	}
	return c.commit(ctx, target)
}

// Cancel dismisses an open confirmation without changing the status.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

func (c *Controller) commit(ctx context.Context, target pipeline.Status) Result {
	if !c.session.Active() {
		return c.refuse(session.ErrNoSession)
	}

	c.mu.Lock()
	c.pending = nil
	previous := c.local
	if target == previous {
		c.mu.Unlock()
		return Result{Outcome: OutcomeUnchanged, Status: previous, Previous: previous, Target: target}
	}
	c.local = target
	c.mu.Unlock()

	err := c.updater.UpdateApplicationStatus(ctx, c.applicationID, target)

	c.mu.Lock()
	if err != nil {
		// A newer transition may have replaced the display in the meantime.
		// previous can itself be an unconfirmed optimistic status, so revert
		// to what the backend last accepted.
		if c.local == target {
			c.local = c.authoritative
		}
		displayed := c.local
		c.mu.Unlock()

		terr := &TransitionError{ApplicationID: c.applicationID, Target: target, Err: err}
		c.logger.Error("status transition rejected",
			slog.String("from", previous.String()),
			slog.String("to", target.String()),
			slog.String("error", err.Error()))
		if c.notifier != nil {
			c.notifier.NotifyError(c.applicationID, FailureMessage)
		}
		return Result{Outcome: OutcomeRolledBack, Status: displayed, Previous: previous, Target: target, Err: terr}
	}
	c.authoritative = target
	displayed := c.local
	c.mu.Unlock()

	c.logger.Info("status updated",
		slog.String("from", previous.String()),
		slog.String("to", target.String()))
	if c.invalidator != nil {
		c.invalidator.InvalidateApplications(ctx)
	}
	return Result{Outcome: OutcomeCommitted, Status: displayed, Previous: previous, Target: target}
}

func (c *Controller) refuse(err error) Result {
	current := c.Status()
	return Result{Outcome: OutcomeRefused, Status: current, Previous: current, Err: err}
}
