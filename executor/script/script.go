// Package script implements a stateful executor that dispatches an
// Action to an external interpreter process over stdin/stdout (§12.2).
// Adapted from the teacher's runtime.ExecutorManager subprocess-lifecycle
// pattern and the ipc length-prefixed msgpack framing.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"

	"github.com/pithecene-io/tornado/executorpool"
	"github.com/pithecene-io/tornado/ipc"
	"github.com/pithecene-io/tornado/types"
)

// Config configures one script executor instance.
type Config struct {
	// InterpreterPath is the path to the interpreter binary (required).
	InterpreterPath string
	// ScriptPath is the path to the script file the interpreter loads
	// and runs for every dispatched action (required).
	ScriptPath string
}

func (c Config) validate() error {
	if c.InterpreterPath == "" {
		return fmt.Errorf("script: InterpreterPath is required")
	}
	if c.ScriptPath == "" {
		return fmt.Errorf("script: ScriptPath is required")
	}
	return nil
}

// Executor launches <interpreter-path> <script-path> <action-id>, writes
// the action as a single framed msgpack request to its stdin, and reads
// one framed msgpack reply from its stdout. It satisfies
// executorpool.StatefulExecutor: a process is not safe for concurrent
// use, so a StatefulPool gives each worker goroutine its own instance.
type Executor struct {
	cfg Config
}

// NewExecutor validates cfg and returns an Executor. It is called from the
// factory that NewStatefulPool runs once per worker.
func NewExecutor(cfg Config) (*Executor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Executor{cfg: cfg}, nil
}

// Execute runs one interpreter invocation for action and maps the result
// to an executorpool.ExecutorError. A non-zero exit or malformed reply
// frame is treated as a retriable ActionExecutionError; a well-formed
// reply with ok:false and an explicit retry:false is non-retriable.
func (e *Executor) Execute(ctx context.Context, action *types.Action) error {
	payloadJSON, err := json.Marshal(action.Payload)
	if err != nil {
		return &executorpool.ExecutorError{
			Kind:     executorpool.UnknownArgumentError,
			CanRetry: false,
			Message:  "script: encode action payload",
			Err:      err,
		}
	}

	traceID := ""
	if action.TraceID != nil {
		traceID = *action.TraceID
	}
	req := &ipc.ActionRequest{ActionID: action.ID, TraceID: traceID, PayloadJSON: payloadJSON}
	framed, err := ipc.EncodeActionRequest(req)
	if err != nil {
		return &executorpool.ExecutorError{
			Kind:     executorpool.ActionExecutionError,
			CanRetry: false,
			Message:  "script: encode action request",
			Err:      err,
		}
	}

	cmd := exec.CommandContext(ctx, e.cfg.InterpreterPath, e.cfg.ScriptPath, action.ID)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &executorpool.ExecutorError{
			Kind:     executorpool.ConfigurationError,
			CanRetry: false,
			Message:  "script: create stdin pipe",
			Err:      err,
		}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &executorpool.ExecutorError{
			Kind:     executorpool.ConfigurationError,
			CanRetry: false,
			Message:  "script: create stdout pipe",
			Err:      err,
		}
	}

	if err := cmd.Start(); err != nil {
		return &executorpool.ExecutorError{
			Kind:     executorpool.ConfigurationError,
			CanRetry: false,
			Message:  "script: start interpreter",
			Err:      err,
		}
	}

	if _, err := stdin.Write(framed); err != nil {
		_ = cmd.Process.Kill()
		return &executorpool.ExecutorError{
			Kind:     executorpool.ActionExecutionError,
			CanRetry: true,
			Message:  "script: write action request",
			Err:      err,
		}
	}
	_ = stdin.Close()

	dec := ipc.NewFrameDecoder(stdout)
	reply, readErr := dec.ReadActionReply()
	// Drain and discard any remaining stdout so the process can exit
	// cleanly even if it writes more than one frame.
	_, _ = io.Copy(io.Discard, stdout)

	waitErr := cmd.Wait()

	if readErr != nil {
		return &executorpool.ExecutorError{
			Kind:     executorpool.ActionExecutionError,
			CanRetry: true,
			Message:  "script: read action reply",
			Err:      readErr,
		}
	}
	if waitErr != nil {
		return &executorpool.ExecutorError{
			Kind:     executorpool.ActionExecutionError,
			CanRetry: true,
			Message:  "script: interpreter exited with error",
			Err:      waitErr,
		}
	}

	return classifyReply(reply)
}

// classifyReply maps a well-formed ActionReply to the error the pool sees:
// nil on ok:true, otherwise a retriable ActionExecutionError unless the
// reply explicitly set retry:false (§12.2).
func classifyReply(reply *ipc.ActionReply) error {
	if reply.OK {
		return nil
	}
	canRetry := true
	if reply.Retry != nil {
		canRetry = *reply.Retry
	}
	return &executorpool.ExecutorError{
		Kind:     executorpool.ActionExecutionError,
		CanRetry: canRetry,
		Message:  reply.Message,
	}
}

var _ executorpool.StatefulExecutor = (*Executor)(nil)
