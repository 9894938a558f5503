package application

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"
)

// ErrNoURLs is returned when there is nothing to apply to.
var ErrNoURLs = errors.New("no job URLs provided")

// LoadURLs reads one job URL per line from path. Blank lines and lines
// starting with # are ignored, duplicates are dropped. A missing file falls
// back to the fallback URL when it is set.
func LoadURLs(path, fallback string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("job URLs file not found, using the default URL",
			zap.String("path", path),
			zap.String("default_url", fallback),
		)
		if strings.TrimSpace(fallback) == "" {
			return nil, ErrNoURLs
		}
		return []string{strings.TrimSpace(fallback)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening job URLs file: %w", err)
	}
	defer file.Close()

	var urls []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			logger.Debug("skipping duplicate job URL", zap.String("url", line))
			continue
		}
		seen[line] = struct{}{}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading job URLs file: %w", err)
	}

	if len(urls) == 0 {
		return nil, ErrNoURLs
	}
	return urls, nil
}
