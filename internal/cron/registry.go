package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is one unit of periodic work run by Service.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry keeps jobs keyed by name. Jobs run in registration order.
type Registry struct {
	order  []string
	byName map[string]Job
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Job)}
}

// Register adds job. Blank and duplicate names are rejected so metric
// labels stay unique per job.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("job required")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("job name required")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	r.byName[name] = job
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the job registered under name.
func (r *Registry) Lookup(name string) (Job, bool) {
	job, ok := r.byName[strings.TrimSpace(name)]
	return job, ok
}

// Names lists registered job names in run order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Jobs returns a copy of the jobs in run order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		jobs = append(jobs, r.byName[name])
	}
	return jobs
}
