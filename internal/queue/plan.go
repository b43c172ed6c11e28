package queue

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Plan is a file-based list of batches, for example:
//
//	batches:
//	  - prefix: H
//	    quantity: 200
//	    profile: default
//	    duration: 01:00:00
//	  - prefix: D
//	    quantity: 40
//	    duration: 1d
type Plan struct {
	Batches []Batch `yaml:"batches"`
}

// ReadPlan decodes a plan from r. Unknown keys are rejected so typos
// ("quantiy") do not silently produce empty batches.
func ReadPlan(r io.Reader) (*Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		if err == io.EOF {
			return &Plan{}, nil
		}
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &p, nil
}

// LoadPlan reads the plan at path and enqueues every batch into q. Every
// batch is validated before any is enqueued: the first invalid batch is
// reported with its position and q is left unchanged.
func LoadPlan(path string, q *Queue) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()

	plan, err := ReadPlan(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	for i, b := range plan.Batches {
		b.Prefix = strings.TrimSpace(b.Prefix)
		b.DurationRaw = strings.TrimSpace(b.DurationRaw)
		if err := b.Validate(); err != nil {
			return 0, fmt.Errorf("%s: batch %d: %w", path, i+1, err)
		}
	}

	loaded := 0
	for i, b := range plan.Batches {
		if _, err := q.Enqueue(b); err != nil {
			return loaded, fmt.Errorf("%s: batch %d: %w", path, i+1, err)
		}
		loaded++
	}
	return loaded, nil
}
