package application

import (
	"encoding/json"
	"os"

	"go.uber.org/zap"
)

// Result describes a successful application.
type Result struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Pages     int    `json:"pages"`
	Filled    int    `json:"filled"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Remaining int    `json:"remaining"`
	Submitted int    `json:"submitted"`
}

// Failure describes an application that did not go through.
type Failure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Summary aggregates the outcome of a run over all job URLs.
type Summary struct {
	Total      int        `json:"total"`
	Successful []*Result  `json:"successful"`
	Failed     []*Failure `json:"failed"`
}

func (s *Summary) succeed(r *Result) {
	s.Successful = append(s.Successful, r)
}

func (s *Summary) fail(url, reason string) {
	s.Failed = append(s.Failed, &Failure{URL: url, Reason: reason})
}

// Log writes the summary report.
func (s *Summary) Log(logger *zap.Logger) {
	if logger == nil {
		return
	}

	logger.Info("application summary",
		zap.Int("total", s.Total),
		zap.Int("successful", len(s.Successful)),
		zap.Int("failed", len(s.Failed)),
	)
	for _, r := range s.Successful {
		logger.Info("applied",
			zap.String("url", r.URL),
			zap.Int("pages", r.Pages),
			zap.Int("filled", r.Filled),
		)
	}
	for _, f := range s.Failed {
		logger.Warn("application failed",
			zap.String("url", f.URL),
			zap.String("reason", f.Reason),
		)
	}
}

// DumpToTmpFile writes the summary as JSON into a new temporary file and
// returns its path.
func (s *Summary) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "applications_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return file.Name(), nil
}
