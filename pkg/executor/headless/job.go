package headless

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/pagechat/pkg/types"
)

// Job is a set of questions asked about one page.
type Job struct {
	// Model overrides the configured model when set
	Model types.Model `yaml:"model" json:"model"`

	// IncludeAll sends the whole document instead of the body
	IncludeAll *bool `yaml:"include_all" json:"include_all"`

	// URL is loaded before the first question when set
	URL string `yaml:"url" json:"url"`

	Questions []string `yaml:"questions" json:"questions"`
}

// LoadJob reads a YAML batch file.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch file %s: %w", path, err)
	}
	return &job, nil
}

// Validate validates the job.
func (j *Job) Validate() error {
	if len(j.Questions) == 0 {
		return fmt.Errorf("at least one question is required")
	}
	for i, q := range j.Questions {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("question %d is empty", i+1)
		}
	}
	if j.Model != "" && !j.Model.Valid() {
		return fmt.Errorf("%w: %q", types.ErrUnknownModel, j.Model)
	}
	return nil
}
