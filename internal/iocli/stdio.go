package iocli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio is the terminal-backed IO used by the real binary: stdout for
// output, buffered stdin for prompts, x/term for no-echo password entry.
type Stdio struct {
	in *bufio.Reader
}

// NewStdio returns terminal IO over os.Stdin and os.Stdout.
func NewStdio() IO {
	return &Stdio{in: bufio.NewReader(os.Stdin)}
}

func (s *Stdio) Println(a ...any) {
	fmt.Println(a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	fmt.Printf(format, a...)
}

// ReadInput shows the prompt and reads one line, trimmed of whitespace
func (s *Stdio) ReadInput(prompt string) (string, error) {
	fmt.Print(prompt)

	line, err := s.in.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// ReadPassword reads a line with terminal echo disabled
func (s *Stdio) ReadPassword(prompt string) (string, error) {
	fmt.Print(prompt)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}
