package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zarafe/internal/project"
)

func TestProjectFormConfig(t *testing.T) {
	form := ProjectForm{
		Name:          "  Shelf Study ",
		EventTypes:    "View {target}\n\nReach\n",
		AccuracyEvent: "Accuracy Test",
		Targets:       "M1: Left monitor\nM2",
		Conditions:    "bright\ndim",
	}

	cfg, err := form.Config(nil)
	require.NoError(t, err)

	assert.Equal(t, "Shelf Study", cfg.Project.Name)
	require.Len(t, cfg.EventTypes, 3)
	assert.Equal(t, project.AppliesToTargets, cfg.EventTypes[0].AppliesTo)
	assert.Empty(t, cfg.EventTypes[1].AppliesTo)
	assert.Equal(t, project.AppliesToValidator, cfg.EventTypes[2].AppliesTo)
	assert.Equal(t, []project.Target{{ID: "M1", Name: "Left monitor"}, {ID: "M2", Name: "M2"}}, cfg.Targets)
	assert.Equal(t, []string{"bright", "dim"}, cfg.Conditions)
	assert.Equal(t, []string{"View M1", "View M2", "Reach", "Accuracy Test"}, cfg.EventNames())
}

func TestProjectFormKeepsColors(t *testing.T) {
	base := &project.Config{
		Project:      project.Info{Name: "Old"},
		EventTypes:   []project.EventType{{Name: "Reach", Color: project.RGB{255, 0, 0}}, {Name: "Gone"}},
		ColorRules:   []project.ColorRule{{Pattern: "M1", Color: project.RGB{0, 0, 255}}},
		DefaultColor: project.RGB{1, 2, 3},
	}

	cfg, err := ProjectForm{Name: "New", EventTypes: "Reach\nGrab"}.Config(base)
	require.NoError(t, err)

	assert.Equal(t, project.RGB{255, 0, 0}, cfg.EventTypes[0].Color)
	assert.Nil(t, cfg.EventTypes[1].Color)
	assert.Equal(t, base.ColorRules, cfg.ColorRules)
	assert.Equal(t, project.RGB{1, 2, 3}, cfg.DefaultColor)
	assert.Equal(t, "Old", base.Project.Name, "base is not modified")
}

func TestProjectFormValidation(t *testing.T) {
	_, err := ProjectForm{Name: "", EventTypes: "A"}.Config(nil)
	assert.ErrorIs(t, err, project.ErrInvalidConfig)

	_, err = ProjectForm{Name: "P"}.Config(nil)
	assert.ErrorIs(t, err, project.ErrInvalidConfig)

	_, err = ProjectForm{Name: "P", EventTypes: "A\nA"}.Config(nil)
	assert.ErrorIs(t, err, project.ErrInvalidConfig)
}

func TestFormFromConfigRoundTrip(t *testing.T) {
	form := ProjectForm{
		Name:          "Shelf Study",
		EventTypes:    "View {target}\nReach",
		AccuracyEvent: "Accuracy Test",
		Targets:       "M1: Left monitor\nM2",
		Conditions:    "bright\ndim",
	}
	cfg, err := form.Config(nil)
	require.NoError(t, err)

	assert.Equal(t, form, FormFromConfig(cfg))
	assert.Equal(t, ProjectForm{}, FormFromConfig(nil))
}
