package views

import (
	"strings"

	"github.com/jinzhu/copier"

	"zarafe/internal/project"
)

// ProjectForm is the editable text form of a project config.
type ProjectForm struct {
	Name          string
	EventTypes    string
	AccuracyEvent string
	Targets       string
	Conditions    string
}

// FormFromConfig renders cfg into the form fields. A nil cfg gives an empty form.
func FormFromConfig(cfg *project.Config) ProjectForm {
	if cfg == nil {
		return ProjectForm{}
	}

	var form ProjectForm
	form.Name = cfg.Project.Name

	var types []string
	for _, et := range cfg.EventTypes {
		if et.AppliesTo == project.AppliesToValidator {
			form.AccuracyEvent = et.Name
			continue
		}
		types = append(types, et.Name)
	}
	form.EventTypes = strings.Join(types, "\n")

	targets := make([]string, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		if t.Name != "" && t.Name != t.ID {
			targets = append(targets, t.ID+": "+t.Name)
			continue
		}
		targets = append(targets, t.ID)
	}
	form.Targets = strings.Join(targets, "\n")
	form.Conditions = strings.Join(cfg.Conditions, "\n")
	return form
}

// Config builds a project config from the form. Settings the form does not edit (colors, color
// rules) are carried over from base, which may be nil.
func (f ProjectForm) Config(base *project.Config) (*project.Config, error) {
	cfg := &project.Config{}
	if base != nil {
		if err := copier.CopyWithOption(cfg, base, copier.Option{DeepCopy: true}); err != nil {
			return nil, err
		}
	}

	colors := make(map[string]project.RGB, len(cfg.EventTypes))
	for _, et := range cfg.EventTypes {
		if len(et.Color) == 3 {
			colors[et.Name] = et.Color
		}
	}

	cfg.Project.Name = strings.TrimSpace(f.Name)

	cfg.EventTypes = nil
	for _, name := range lines(f.EventTypes) {
		et := project.EventType{Name: name, Color: colors[name]}
		if strings.Contains(name, project.TargetPlaceholder) {
			et.AppliesTo = project.AppliesToTargets
		}
		cfg.EventTypes = append(cfg.EventTypes, et)
	}
	if name := strings.TrimSpace(f.AccuracyEvent); name != "" {
		cfg.EventTypes = append(cfg.EventTypes, project.EventType{
			Name:      name,
			Color:     colors[name],
			AppliesTo: project.AppliesToValidator,
		})
	}

	cfg.Targets = nil
	for _, line := range lines(f.Targets) {
		id, name, _ := strings.Cut(line, ":")
		t := project.Target{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)}
		if t.Name == "" {
			t.Name = t.ID
		}
		cfg.Targets = append(cfg.Targets, t)
	}

	cfg.Conditions = lines(f.Conditions)
	return cfg, cfg.Validate()
}

func lines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
