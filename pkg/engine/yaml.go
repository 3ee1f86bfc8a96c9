package engine

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hoopmetrics/playbook/pkg/models"
	"gopkg.in/yaml.v3"
)

// DefaultWorkflowSource tags workflows with no declared origin.
const DefaultWorkflowSource = string(models.SourceWorkflowEngine)

var validate = validator.New()

// workflowDefinition is the declarative document consumed from YAML.
// Pointer booleans distinguish "absent" from "false" so the documented
// defaults (both true) apply only when the key is omitted.
type workflowDefinition struct {
	WorkflowID  string           `yaml:"workflow_id"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Source      string           `yaml:"source"`
	NotifySlack *bool            `yaml:"notify_slack"`
	SaveState   *bool            `yaml:"save_state"`
	Steps       []stepDefinition `yaml:"steps"`
}

type stepDefinition struct {
	Name              string         `yaml:"name"`
	Action            string         `yaml:"action"`
	Description       string         `yaml:"description"`
	Params            map[string]any `yaml:"params"`
	RequiresApproval  bool           `yaml:"requires_approval"`
	ContinueOnFailure bool           `yaml:"continue_on_failure"`
	TimeoutSeconds    *int           `yaml:"timeout_seconds"`
	RetryCount        int            `yaml:"retry_count"`
	RetryDelaySeconds *int           `yaml:"retry_delay_seconds"`
}

// LoadWorkflowFromYAML parses a declarative workflow definition file into a
// Workflow ready for execution.
func LoadWorkflowFromYAML(path string) (*models.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow definition %s: %w", path, err)
	}

	return ParseWorkflowDefinition(data)
}

// ParseWorkflowDefinition builds a Workflow from a YAML (or JSON) document,
// applying documented defaults and validating the result.
func ParseWorkflowDefinition(data []byte) (*models.Workflow, error) {
	var def workflowDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse workflow definition: %w", err)
	}

	workflow := &models.Workflow{
		ID:          def.WorkflowID,
		Name:        def.Name,
		Description: def.Description,
		Source:      def.Source,
		NotifySlack: def.NotifySlack == nil || *def.NotifySlack,
		SaveState:   def.SaveState == nil || *def.SaveState,
		Status:      models.WorkflowStatusCreated,
		Steps:       make([]*models.WorkflowStep, 0, len(def.Steps)),
	}

	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	if workflow.Source == "" {
		workflow.Source = DefaultWorkflowSource
	}

	for _, stepDef := range def.Steps {
		step := &models.WorkflowStep{
			Name:              stepDef.Name,
			Action:            stepDef.Action,
			Description:       stepDef.Description,
			Params:            stepDef.Params,
			RequiresApproval:  stepDef.RequiresApproval,
			ContinueOnFailure: stepDef.ContinueOnFailure,
			RetryCount:        stepDef.RetryCount,
		}
		step.ApplyDefaults()

		// Explicit zeros are honored; only omitted keys take defaults.
		if stepDef.TimeoutSeconds != nil {
			step.TimeoutSeconds = *stepDef.TimeoutSeconds
		}

		if stepDef.RetryDelaySeconds != nil {
			step.RetryDelaySeconds = *stepDef.RetryDelaySeconds
		}

		workflow.Steps = append(workflow.Steps, step)
	}

	if err := validate.Struct(workflow); err != nil {
		return nil, fmt.Errorf("invalid workflow definition: %w", err)
	}

	return workflow, nil
}
