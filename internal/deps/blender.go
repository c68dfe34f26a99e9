package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

var blenderVersionPattern = regexp.MustCompile(`^Blender\s+(\S+)`)

// BlenderVersion runs `<binary> --version` and returns the release it
// reports, such as "4.1.1".
func BlenderVersion(ctx context.Context, binary string) (string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return "", fmt.Errorf("blender binary not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	output, err := exec.CommandContext(ctx, binary, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("%s --version: %w", binary, err)
	}
	return parseBlenderVersion(output)
}

func parseBlenderVersion(output []byte) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		if match := blenderVersionPattern.FindStringSubmatch(strings.TrimSpace(scanner.Text())); match != nil {
			return match[1], nil
		}
	}
	return "", fmt.Errorf("no Blender version line in output")
}

// CheckBlender reports whether the Blender binary resolves and, when it
// does, which version it is.
func CheckBlender(ctx context.Context, binary string) Status {
	status := CheckCommand("Blender", binary, false)
	if !status.Available {
		return status
	}
	version, err := BlenderVersion(ctx, status.Path)
	if err != nil {
		status.Available = false
		status.Detail = err.Error()
		return status
	}
	status.Detail = "Blender " + version
	return status
}
