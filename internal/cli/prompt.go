package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/go-faster/errors"
)

// Prompter asks yes/no questions.
type Prompter interface {
	Confirm(question string) (bool, error)
}

// LinePrompter reads answers line by line from a reader.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter returns a Prompter reading from in and writing questions
// to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Confirm accepts y/yes and n/no, case-insensitive. An empty answer or end
// of input means no; anything else asks again.
func (p *LinePrompter) Confirm(question string) (bool, error) {
	for {
		if _, err := fmt.Fprintf(p.out, "%s [y/N] ", question); err != nil {
			return false, errors.Wrap(err, "write prompt")
		}
		line, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, errors.Wrap(err, "read answer")
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no", "":
			return false, nil
		}
		if err != nil {
			return false, nil
		}
	}
}
