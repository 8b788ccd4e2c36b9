package agent

import (
	"context"

	copilot "github.com/github/copilot-sdk/go"
)

//go:generate go tool mockgen -source=copilot_client_wrappers.go -destination=copilot_client_wrappers_mock_test.go -package=agent

// sessionOptions are the per-agent settings of a new Copilot session.
type sessionOptions struct {
	Model   string
	WorkDir string
}

// runtimeSession is the part of [*copilot.Session] a CopilotAgent talks to.
type runtimeSession interface {
	// Subscribe registers handler for session events until the returned
	// func is called.
	Subscribe(handler copilot.SessionEventHandler) (unsubscribe func())

	// Send posts prompt and blocks until the session is idle again.
	Send(ctx context.Context, prompt string) error

	ID() string
}

// runtimeClient is the part of [*copilot.Client] a CopilotFactory needs.
type runtimeClient interface {
	Open(ctx context.Context, opts sessionOptions) (runtimeSession, error)
	Start(ctx context.Context) error
	Stop() error
}

func newRuntimeClient(clientOptions *copilot.ClientOptions) runtimeClient {
	return &sdkClient{inner: copilot.NewClient(clientOptions)}
}

type sdkClient struct {
	inner *copilot.Client
}

// Open creates a session in which every tool request is approved, since
// conversations run unattended.
func (c *sdkClient) Open(ctx context.Context, opts sessionOptions) (runtimeSession, error) {
	sess, err := c.inner.CreateSession(ctx, &copilot.SessionConfig{
		Model:               opts.Model,
		OnPermissionRequest: approveTools,
		WorkingDirectory:    opts.WorkDir,
	})
	if err != nil {
		return nil, err
	}
	return &sdkSession{inner: sess}, nil
}

func (c *sdkClient) Start(ctx context.Context) error {
	return c.inner.Start(ctx)
}

func (c *sdkClient) Stop() error {
	return c.inner.Stop()
}

// sdkSession adapts [copilot.Session], whose SessionID is a field.
type sdkSession struct {
	inner *copilot.Session
}

func (s *sdkSession) Subscribe(handler copilot.SessionEventHandler) func() {
	return s.inner.On(handler)
}

func (s *sdkSession) Send(ctx context.Context, prompt string) error {
	_, err := s.inner.SendAndWait(ctx, copilot.MessageOptions{Prompt: prompt})
	return err
}

func (s *sdkSession) ID() string {
	return s.inner.SessionID
}

func approveTools(request copilot.PermissionRequest, invocation copilot.PermissionInvocation) (copilot.PermissionRequestResult, error) {
	// value for 'Kind' came from the permissions_test.go in the Copilot SDK.
	return copilot.PermissionRequestResult{Kind: "approved"}, nil
}
