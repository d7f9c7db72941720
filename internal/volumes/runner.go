package volumes

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Runner starts an external command and hands back its standard output.
// Closing the stream waits for the command to exit; callers must always
// close it, including on parse failures.
type Runner interface {
	Start(ctx context.Context, name string, args ...string) (io.ReadCloser, error)
}

// ExecRunner runs commands on the local host. Standard error is collected
// apart from standard output and only surfaces in an ExitError.
type ExecRunner struct{}

func (ExecRunner) Start(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &StartError{Path: name, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &StartError{Path: name, Err: err}
	}
	return &processOutput{ctx: ctx, cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type processOutput struct {
	ctx    context.Context
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer

	once     sync.Once
	closeErr error
}

func (p *processOutput) Read(b []byte) (int, error) {
	return p.stdout.Read(b)
}

// Close drains whatever the reader left unread, since Wait closes the pipe,
// and then reaps the process.
func (p *processOutput) Close() error {
	p.once.Do(func() {
		_, _ = io.Copy(io.Discard, p.stdout)
		err := p.cmd.Wait()
		switch {
		case err == nil:
		case p.ctx.Err() != nil:
			p.closeErr = p.ctx.Err()
		default:
			p.closeErr = &ExitError{
				Path:   p.cmd.Path,
				Args:   p.cmd.Args[1:],
				Stderr: strings.TrimSpace(p.stderr.String()),
				Err:    err,
			}
		}
	})
	return p.closeErr
}
