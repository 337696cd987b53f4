package service

import (
	"strings"

	"github.com/noah-isme/probing-go-api/internal/models"
)

// DefaultSlot is the slot name of workflows that accept a single submission at a time.
const DefaultSlot = "default"

// Question type tags written to submissions.
const (
	QuestionTypeHealthInequality = "health_inequality"
)

// Workflow describes one submission page: its category tag, parallel slots and gating flag.
type Workflow struct {
	Category string
	Slots    []string
	Feature  string
}

// StudentType maps a slot name from the URL to the tag stored on submissions.
func (w Workflow) StudentType(slot string) (string, error) {
	if len(w.Slots) == 0 {
		if slot == DefaultSlot {
			return "", nil
		}
		return "", ErrUnknownSlot
	}

	normalized := strings.ToUpper(strings.TrimSpace(slot))
	for _, candidate := range w.Slots {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", ErrUnknownSlot
}

// WorkflowCatalog indexes workflows by category.
type WorkflowCatalog map[string]Workflow

// DefaultWorkflows returns the workflows served by the API.
func DefaultWorkflows() WorkflowCatalog {
	return NewWorkflowCatalog(Workflow{
		Category: QuestionTypeHealthInequality,
		Slots:    []string{"A", "B"},
		Feature:  models.FeatureProbing02,
	})
}

// NewWorkflowCatalog builds a catalog from the given workflows.
func NewWorkflowCatalog(workflows ...Workflow) WorkflowCatalog {
	catalog := make(WorkflowCatalog, len(workflows))
	for _, workflow := range workflows {
		catalog[workflow.Category] = workflow
	}
	return catalog
}

// Lookup returns the workflow registered for category.
func (c WorkflowCatalog) Lookup(category string) (Workflow, error) {
	workflow, ok := c[category]
	if !ok {
		return Workflow{}, ErrUnknownWorkflow
	}
	return workflow, nil
}
