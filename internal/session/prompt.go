package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the user a question and returns the answer line.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
}

type reply struct {
	line string
	err  error
}

// LinePrompter writes questions to Out and reads one line per answer from In.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer

	replies chan reply
	// pending is set while a read is outstanding; a read abandoned by a
	// cancelled Ask is handed to the next one.
	pending bool
}

// NewLinePrompter returns a Prompter over a reader and writer pair.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out, replies: make(chan reply, 1)}
}

// Ask prints question and reads the reply without its line terminator. A
// final line without a newline is returned as-is; io.EOF is returned only
// when no input is left at all. Ask returns ctx.Err() as soon as ctx ends,
// even while the read is still blocked.
func (p *LinePrompter) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprint(p.out, question); err != nil {
		return "", err
	}
	if !p.pending {
		p.pending = true
		go func() {
			line, err := p.in.ReadString('\n')
			p.replies <- reply{line: line, err: err}
		}()
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-p.replies:
		p.pending = false
		if r.err != nil && !(errors.Is(r.err, io.EOF) && r.line != "") {
			return "", r.err
		}
		return strings.TrimRight(r.line, "\r\n"), nil
	}
}

// Script is a Prompter that replays fixed answers and records the questions.
type Script struct {
	Answers   []string
	Questions []string
}

// Ask returns the next scripted answer or io.EOF once they run out.
func (s *Script) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.Questions = append(s.Questions, question)
	if len(s.Answers) == 0 {
		return "", io.EOF
	}
	a := s.Answers[0]
	s.Answers = s.Answers[1:]
	return a, nil
}
