package dbdeploy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Confirm writes question to w and reads one line from r. Only "y"
// (case-insensitive, surrounding space ignored) is affirmative. End of input
// without an answer counts as "no".
func Confirm(r io.Reader, w io.Writer, question string) (bool, error) {
	if _, err := fmt.Fprint(w, question); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(line)) == "y", nil
}
