package services

import (
	"context"
	"strings"

	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/logger"
	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/ports"
)

const (
	maxNameLength   = 100
	maxPromptLength = 20000
)

// CatalogService manages the review rules and system prompts fed to every review.
type CatalogService struct {
	rules   ports.RuleStore
	prompts ports.PromptStore
}

func NewCatalogService(rules ports.RuleStore, prompts ports.PromptStore) *CatalogService {
	return &CatalogService{rules: rules, prompts: prompts}
}

type NewRule struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Rule        string `json:"rule"`
	Enabled     *bool  `json:"enabled"`
}

type NewPrompt struct {
	Name     string `json:"name"`
	Prompt   string `json:"prompt"`
	IsActive bool   `json:"isActive"`
}

func (s *CatalogService) ListRules(ctx context.Context) ([]models.ReviewRule, error) {
	return s.rules.ListRules(ctx)
}

// CreateRule stores a rule. Rules are enabled unless Enabled is explicitly false.
func (s *CatalogService) CreateRule(ctx context.Context, in NewRule) (*models.ReviewRule, error) {
	rule := &models.ReviewRule{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Rule:        strings.TrimSpace(in.Rule),
		Enabled:     in.Enabled == nil || *in.Enabled,
	}

	var fields []errors.FieldError
	fields = append(fields, checkName(rule.Name)...)
	if rule.Rule == "" {
		fields = append(fields, errors.FieldError{Field: "rule", Message: "is required"})
	}
	if len(fields) > 0 {
		return nil, errors.ErrValidation.WithMessage("Invalid rule").WithFields(fields...)
	}

	if err := s.rules.CreateRule(ctx, rule); err != nil {
		return nil, err
	}
	logger.Info(ctx, "review rule created", "rule_id", rule.ID, "name", rule.Name)
	return rule, nil
}

func (s *CatalogService) SetRuleEnabled(ctx context.Context, id string, enabled bool) error {
	if err := s.rules.SetRuleEnabled(ctx, id, enabled); err != nil {
		return err
	}
	logger.Info(ctx, "review rule toggled", "rule_id", id, "enabled", enabled)
	return nil
}

func (s *CatalogService) DeleteRule(ctx context.Context, id string) error {
	return s.rules.DeleteRule(ctx, id)
}

func (s *CatalogService) ListPrompts(ctx context.Context) ([]models.SystemPrompt, error) {
	return s.prompts.ListPrompts(ctx)
}

func (s *CatalogService) ActivePrompt(ctx context.Context) (*models.SystemPrompt, error) {
	return s.prompts.ActivePrompt(ctx)
}

func (s *CatalogService) CreatePrompt(ctx context.Context, in NewPrompt) (*models.SystemPrompt, error) {
	prompt := &models.SystemPrompt{
		Name:     strings.TrimSpace(in.Name),
		Prompt:   strings.TrimSpace(in.Prompt),
		IsActive: in.IsActive,
	}

	var fields []errors.FieldError
	fields = append(fields, checkName(prompt.Name)...)
	switch {
	case prompt.Prompt == "":
		fields = append(fields, errors.FieldError{Field: "prompt", Message: "is required"})
	case len(prompt.Prompt) > maxPromptLength:
		fields = append(fields, errors.FieldError{Field: "prompt", Message: "is too long"})
	}
	if len(fields) > 0 {
		return nil, errors.ErrValidation.WithMessage("Invalid prompt").WithFields(fields...)
	}

	if err := s.prompts.CreatePrompt(ctx, prompt); err != nil {
		return nil, err
	}
	logger.Info(ctx, "system prompt created", "prompt_id", prompt.ID, "name", prompt.Name, "active", prompt.IsActive)
	return prompt, nil
}

func (s *CatalogService) ActivatePrompt(ctx context.Context, id string) error {
	if err := s.prompts.ActivatePrompt(ctx, id); err != nil {
		return err
	}
	logger.Info(ctx, "system prompt activated", "prompt_id", id)
	return nil
}

func (s *CatalogService) DeletePrompt(ctx context.Context, id string) error {
	return s.prompts.DeletePrompt(ctx, id)
}

func checkName(name string) []errors.FieldError {
	switch {
	case name == "":
		return []errors.FieldError{{Field: "name", Message: "is required"}}
	case len(name) > maxNameLength:
		return []errors.FieldError{{Field: "name", Message: "is too long"}}
	}
	return nil
}
