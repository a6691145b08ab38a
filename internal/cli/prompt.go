package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/stackgen-labs/stackgen/internal/config"
)

// maxPromptAttempts bounds how often an invalid name is asked again.
const maxPromptAttempts = 3

// readProjectName asks for a project name on w and reads it from r,
// re-asking while the answer is invalid.
func readProjectName(r io.Reader, w io.Writer) (string, error) {
	reader := bufio.NewReader(r)
	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		fmt.Fprint(w, "Project name: ")
		line, err := reader.ReadString('\n')
		name := strings.TrimSpace(line)
		if err != nil && name == "" {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no project name given")
			}
			return "", fmt.Errorf("reading project name: %w", err)
		}

		verr := config.ValidateName(name)
		if verr == nil {
			return name, nil
		}
		fmt.Fprintf(w, "  %v\n", verr)
		if err != nil {
			// Input is exhausted.
			return "", verr
		}
	}
	return "", fmt.Errorf("no valid project name after %d attempts", maxPromptAttempts)
}
