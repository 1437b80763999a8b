package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Prompter obtains a replacement refresh token out-of-band.
//
//go:generate mockgen -package=supervisor_test -destination=../supervisor/mock_prompt_test.go -source=prompt.go Prompter
type Prompter interface {
	PromptRefreshToken(ctx context.Context) (string, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context) (string, error)

func (f PrompterFunc) PromptRefreshToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// ErrEmptyToken is returned when the user enters nothing.
var ErrEmptyToken = errors.New("empty refresh token")

// ConsolePrompter asks for a token on Out and reads one line from In. All
// prompts share one buffered reader, so input typed ahead is not lost. A
// prompt cancelled mid-read leaves its read running, and the line it
// eventually gets is returned by the next prompt.
type ConsolePrompter struct {
	In  io.Reader
	Out io.Writer

	mu      sync.Mutex
	reader  *bufio.Reader
	pending chan promptLine // read left behind by a cancelled prompt
}

type promptLine struct {
	line string
	err  error
}

// PromptRefreshToken blocks until a line is read or ctx is done. The read
// runs on its own goroutine so cancellation is never stuck behind stdin.
func (p *ConsolePrompter) PromptRefreshToken(ctx context.Context) (string, error) {
	fmt.Fprint(p.Out, "Please provide your Questrade refresh token: ")

	done := p.readLine()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		p.mu.Lock()
		p.pending = nil
		p.mu.Unlock()

		if r.err != nil {
			return "", fmt.Errorf("read refresh token: %w", r.err)
		}
		token := strings.TrimSpace(r.line)
		if token == "" {
			return "", ErrEmptyToken
		}
		return token, nil
	}
}

// readLine returns the in-flight read, starting one if none is pending.
func (p *ConsolePrompter) readLine() <-chan promptLine {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending != nil {
		return p.pending
	}
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}

	ch := make(chan promptLine, 1)
	reader := p.reader
	go func() {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		ch <- promptLine{line: line, err: err}
	}()
	p.pending = ch
	return ch
}
