package notify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Texts holds the notification wording. A yaml file can override any subset
// of the defaults.
type Texts struct {
	NewTaskSubject string `yaml:"newTaskSubject"`
	NewTaskBody    string `yaml:"newTaskBody"`

	OverdueSubject       string `yaml:"overdueSubject"`
	OverdueBody          string `yaml:"overdueBody"`
	OverdueEscalatedBody string `yaml:"overdueEscalatedBody"`

	OverdueInAppTitle   string `yaml:"overdueInAppTitle"`
	OverdueInAppContent string `yaml:"overdueInAppContent"`
}

func defaultTexts() Texts {
	return Texts{
		NewTaskSubject: "[Workflow] You have a new pending task",
		NewTaskBody: "Hello,\n\nA new task is waiting for you.\n\n" +
			"Task: %s\nRequest: %s\nSubmitted by: %s\n\n" +
			"Please log in to handle it.\n\nThis is an automated message, do not reply.",

		OverdueSubject: "[Workflow] A pending task is overdue",
		OverdueBody: "Hello %s,\n\nThe following task has exceeded its handling time of %s.\n\n" +
			"Task: %s\nRequest: %s\n\n" +
			"Please handle it as soon as possible.\n\nThis is an automated message, do not reply.",
		OverdueEscalatedBody: "Hello %s,\n\nThe following task has exceeded its handling time of %s.\n" +
			"The original assignee %s did not handle it in time and it has been reassigned to you.\n\n" +
			"Task: %s\nRequest: %s\n\n" +
			"Please handle it as soon as possible.\n\nThis is an automated message, do not reply.",

		OverdueInAppTitle:   "A pending task is about to expire",
		OverdueInAppContent: "The %s request from %s has been waiting for you for a while, please handle it soon.",
	}
}

// LoadTexts returns the default wording, overridden by non-empty fields of
// the given yaml file when one is configured.
func LoadTexts(file string) (Texts, error) {
	texts := defaultTexts()
	if file == "" {
		return texts, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return texts, fmt.Errorf("failed to read notification template file: %w", err)
	}
	overrides := Texts{}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return texts, fmt.Errorf("failed to parse notification template file: %w", err)
	}
	merge(&texts.NewTaskSubject, overrides.NewTaskSubject)
	merge(&texts.NewTaskBody, overrides.NewTaskBody)
	merge(&texts.OverdueSubject, overrides.OverdueSubject)
	merge(&texts.OverdueBody, overrides.OverdueBody)
	merge(&texts.OverdueEscalatedBody, overrides.OverdueEscalatedBody)
	merge(&texts.OverdueInAppTitle, overrides.OverdueInAppTitle)
	merge(&texts.OverdueInAppContent, overrides.OverdueInAppContent)
	return texts, nil
}

func merge(target *string, override string) {
	if override != "" {
		*target = override
	}
}
