package prompt

import (
	"strings"
)

const DefaultSummaryWindow = 3

// Profile carries the onboarding fields a persona may be personalised with.
type Profile struct {
	Name string `json:"name"`
	Mood string `json:"mood"`
}

// Persona is the fixed instruction the model is given, plus the knobs that
// used to be separate variants of the app.
type Persona struct {
	Name           string `toml:"name"`
	Title          string `toml:"title"`
	Tagline        string `toml:"tagline"`
	Template       string `toml:"template"`
	Greeting       string `toml:"greeting"`
	Placeholder    string `toml:"placeholder"`
	IncludeName    bool   `toml:"include_name"`
	IncludeMood    bool   `toml:"include_mood"`
	RequireProfile bool   `toml:"require_profile"`
	Summarize      bool   `toml:"summarize"`
	SummaryWindow  int    `toml:"summary_window"`
}

// Instruction renders the persona template for p.
func (ps Persona) Instruction(p Profile) string {
	return ps.render(ps.Template, p, true)
}

// GreetingFor renders the opening message. It is empty when the persona waits
// for onboarding and no name has been given yet.
func (ps Persona) GreetingFor(p Profile) string {
	if ps.RequireProfile && strings.TrimSpace(p.Name) == "" {
		return ""
	}
	return ps.render(ps.Greeting, p, false)
}

func (ps Persona) Window() int {
	if ps.SummaryWindow > 0 {
		return ps.SummaryWindow
	}
	return DefaultSummaryWindow
}

func (ps Persona) render(tmpl string, p Profile, addLines bool) string {
	name := strings.TrimSpace(p.Name)
	mood := strings.TrimSpace(p.Mood)
	if !ps.IncludeName {
		name = ""
	}
	if !ps.IncludeMood {
		mood = ""
	}

	hasName := strings.Contains(tmpl, "{name}")
	hasMood := strings.Contains(tmpl, "{mood}")
	out := strings.NewReplacer(
		"{name}", fallback(name, "friend"),
		"{mood}", fallback(mood, "however you feel"),
	).Replace(tmpl)

	if !addLines {
		return out
	}
	if name != "" && !hasName {
		out += "\nThe user's name is " + name + "."
	}
	if mood != "" && !hasMood {
		out += "\nThe user currently feels " + mood + "."
	}
	return out
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
