package prompt

import (
	"errors"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

var ErrUnknownPersona = errors.New("unknown persona")

const therapistInstruction = "You are MindEase, a calm, gentle, and compassionate AI therapist. " +
	"Your goal is to help the user feel relaxed, less anxious, and more centered. " +
	"Speak in a soothing tone. Use mindfulness techniques like breathing exercises, visualizations, and affirmations. " +
	"Do not diagnose or give medical advice. Be warm, encouraging, and present."

// Builtin returns the personas shipped with the binary.
func Builtin() map[string]Persona {
	return map[string]Persona{
		"therapist": {
			Name:        "therapist",
			Title:       "MindEase: Your Relaxation Companion",
			Tagline:     "Feeling overwhelmed or stressed? Let me help you relax, breathe, and find clarity.",
			Template:    therapistInstruction,
			Greeting:    "Hi, I'm MindEase. Take a slow breath with me. What's on your mind today?",
			Placeholder: "I’m feeling a bit overwhelmed today...",
		},
		"companion": {
			Name:    "companion",
			Title:   "MindEase",
			Tagline: "Tell me your name and how you feel, and we'll take it from there.",
			Template: "You are MindEase, a warm companion talking with {name}, who feels {mood} right now. " +
				"Keep answers short, kind and grounded. Offer one small calming exercise when it helps. " +
				"Never diagnose or give medical advice.",
			Greeting:       "Hello {name}. I see you're feeling {mood}. I'm here with you.",
			Placeholder:    "What's on your mind?",
			IncludeName:    true,
			IncludeMood:    true,
			RequireProfile: true,
		},
		"reflective": {
			Name:          "reflective",
			Title:         "MindEase: Reflect & Relax",
			Tagline:       "I keep track of what you've shared so we can gently come back to it.",
			Template:      therapistInstruction + " Gently refer back to what the user has shared when it helps them feel heard.",
			Greeting:      "Hi, I'm MindEase. Whatever you share, I'll hold onto it with care.",
			Placeholder:   "I’m feeling a bit overwhelmed today...",
			Summarize:     true,
			SummaryWindow: DefaultSummaryWindow,
		},
	}
}

type presetFile struct {
	Personas []Persona `toml:"persona"`
}

// LoadPresets reads [[persona]] tables from a TOML file and merges them over
// the builtin set. Entries with the same name replace builtins.
func LoadPresets(path string) (map[string]Persona, error) {
	out := Builtin()
	if path == "" {
		return out, nil
	}
	var f presetFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("error decoding persona file: %w", err)
	}
	for i, p := range f.Personas {
		if p.Name == "" {
			return nil, fmt.Errorf("persona #%d in %s has no name", i+1, path)
		}
		if p.Template == "" {
			return nil, fmt.Errorf("persona %q in %s has no template", p.Name, path)
		}
		out[p.Name] = p
	}
	return out, nil
}

// Lookup loads the presets at path and returns the one called name.
func Lookup(path, name string) (Persona, error) {
	all, err := LoadPresets(path)
	if err != nil {
		return Persona{}, err
	}
	p, ok := all[name]
	if !ok {
		return Persona{}, fmt.Errorf("%w: %s (known: %v)", ErrUnknownPersona, name, Names(all))
	}
	return p, nil
}

func Names(all map[string]Persona) []string {
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
