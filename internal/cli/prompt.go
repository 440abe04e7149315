package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aanand-mishra/campus-records/internal/utils/response"
)

// ErrParse is returned when a prompt expects a number and gets something
// else.
var ErrParse = errors.New("parse error")

// errInput marks a failure to read from the input itself.
var errInput = errors.New("input error")

// Prompter reads one answer per line, of any length. Answers are trimmed.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from r and writes prompts to w.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(r), out: w}
}

// ReadLine writes label and returns the next line. It returns io.EOF when
// the input is exhausted.
func (p *Prompter) ReadLine(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("ReadLine: %w: %v", errInput, err)
	}
	if line == "" && err != nil {
		return "", io.EOF
	}
	return strings.TrimSpace(line), nil
}

// ReadInt is ReadLine for integers. A non-numeric answer yields ErrParse.
func (p *Prompter) ReadInt(label string) (int, error) {
	s, err := p.ReadLine(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrParse, s)
	}
	return n, nil
}

// printRecoverable prints a domain or parse error and returns nil so the
// menu loop continues. End of input and read failures are returned as is.
func printRecoverable(w io.Writer, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, errInput) {
		return err
	}
	response.Error(w, err)
	return nil
}

// endOfInput turns io.EOF into a clean exit.
func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
