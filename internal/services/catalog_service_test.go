package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/store"
)

func newCatalog() *CatalogService {
	st := store.NewMemoryStore()
	return NewCatalogService(st, st)
}

func TestCatalogService_Rules(t *testing.T) {
	ctx := context.Background()

	t.Run("create defaults to enabled and trims input", func(t *testing.T) {
		svc := newCatalog()

		rule, err := svc.CreateRule(ctx, NewRule{Name: "  no-debug ", Rule: " No console.log "})

		require.NoError(t, err)
		assert.Equal(t, "no-debug", rule.Name)
		assert.Equal(t, "No console.log", rule.Rule)
		assert.True(t, rule.Enabled)
		assert.NotEmpty(t, rule.ID)
	})

	t.Run("explicitly disabled", func(t *testing.T) {
		svc := newCatalog()
		disabled := false

		rule, err := svc.CreateRule(ctx, NewRule{Name: "later", Rule: "x", Enabled: &disabled})

		require.NoError(t, err)
		assert.False(t, rule.Enabled)
	})

	t.Run("validation lists every bad field", func(t *testing.T) {
		svc := newCatalog()

		_, err := svc.CreateRule(ctx, NewRule{})

		require.ErrorIs(t, err, errors.ErrValidation)
		appErr, ok := errors.As(err)
		require.True(t, ok)
		require.Len(t, appErr.Fields, 2)
		assert.Equal(t, "name", appErr.Fields[0].Field)
		assert.Equal(t, "rule", appErr.Fields[1].Field)
	})

	t.Run("name too long", func(t *testing.T) {
		svc := newCatalog()

		_, err := svc.CreateRule(ctx, NewRule{Name: strings.Repeat("n", 101), Rule: "x"})

		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("toggle and delete", func(t *testing.T) {
		svc := newCatalog()
		rule, err := svc.CreateRule(ctx, NewRule{Name: "r", Rule: "x"})
		require.NoError(t, err)

		require.NoError(t, svc.SetRuleEnabled(ctx, rule.ID, false))
		rules, err := svc.ListRules(ctx)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.False(t, rules[0].Enabled)

		require.NoError(t, svc.DeleteRule(ctx, rule.ID))
		assert.ErrorIs(t, svc.DeleteRule(ctx, rule.ID), errors.ErrRuleNotFound)
		assert.ErrorIs(t, svc.SetRuleEnabled(ctx, rule.ID, true), errors.ErrRuleNotFound)
	})
}

func TestCatalogService_Prompts(t *testing.T) {
	ctx := context.Background()

	t.Run("create activate delete", func(t *testing.T) {
		svc := newCatalog()

		a, err := svc.CreatePrompt(ctx, NewPrompt{Name: "a", Prompt: "Prompt A", IsActive: true})
		require.NoError(t, err)
		b, err := svc.CreatePrompt(ctx, NewPrompt{Name: "b", Prompt: "Prompt B"})
		require.NoError(t, err)

		active, err := svc.ActivePrompt(ctx)
		require.NoError(t, err)
		assert.Equal(t, a.ID, active.ID)

		require.NoError(t, svc.ActivatePrompt(ctx, b.ID))
		active, err = svc.ActivePrompt(ctx)
		require.NoError(t, err)
		assert.Equal(t, b.ID, active.ID)

		require.NoError(t, svc.DeletePrompt(ctx, b.ID))
		active, err = svc.ActivePrompt(ctx)
		require.NoError(t, err)
		assert.Nil(t, active)

		prompts, err := svc.ListPrompts(ctx)
		require.NoError(t, err)
		assert.Len(t, prompts, 1)
	})

	t.Run("duplicate name", func(t *testing.T) {
		svc := newCatalog()
		_, err := svc.CreatePrompt(ctx, NewPrompt{Name: "a", Prompt: "x"})
		require.NoError(t, err)

		_, err = svc.CreatePrompt(ctx, NewPrompt{Name: "A", Prompt: "y"})

		assert.ErrorIs(t, err, errors.ErrDuplicateName)
	})

	t.Run("empty prompt", func(t *testing.T) {
		svc := newCatalog()

		_, err := svc.CreatePrompt(ctx, NewPrompt{Name: "a", Prompt: "   "})

		require.ErrorIs(t, err, errors.ErrValidation)
		appErr, _ := errors.As(err)
		require.Len(t, appErr.Fields, 1)
		assert.Equal(t, "prompt", appErr.Fields[0].Field)
	})

	t.Run("unknown prompt", func(t *testing.T) {
		svc := newCatalog()

		assert.ErrorIs(t, svc.ActivatePrompt(ctx, "nope"), errors.ErrPromptNotFound)
	})
}
