// Package prompt renders image prompts from named YAML presets.
package prompt

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v2"
)

// DefaultCaption is posted with an item when none is configured.
const DefaultCaption = "Generated by AI #AI #ArtificialIntelligence"

// ErrPresetNotFound is returned when a named preset is missing or empty.
var ErrPresetNotFound = errors.New("prompt preset not found")

// Preset describes the character and scene of an image. Empty fields fall
// back to Defaults.
type Preset struct {
	ArtStyle    string `yaml:"art_style"`
	Gender      string `yaml:"gender"`
	Age         string `yaml:"age"`
	Eye         string `yaml:"eye"`
	Hair        string `yaml:"hair"`
	Pose        string `yaml:"pose"`
	Expression  string `yaml:"expression"`
	Gaze        string `yaml:"gaze"`
	Clothing    string `yaml:"clothing"`
	Composition string `yaml:"composition"`
	Scene       string `yaml:"scene"`
}

var Defaults = Preset{
	ArtStyle:    "Soft color palette, detailed line art in modern animation style",
	Gender:      "Female",
	Age:         "20 years old",
	Eye:         "Red",
	Hair:        "Medium wavy hair, caramel brown, with detailed hair accessories",
	Pose:        "Gentle hand gestures picking flowers",
	Expression:  "Smiling happily, pay attention to the subtle shading of the expression",
	Gaze:        "Gently toward the flower held in hand",
	Clothing:    "Spring-like floral dress, focusing on flower embroidery and frill details",
	Composition: "Capturing the full body of a child in a flower field while also expressing the surrounding nature in detail",
	Scene:       "Relaxed flower field under spring sunshine, with each surrounding flower carefully depicted",
}

var tmpl = template.Must(template.New("prompt").Parse(`Please generate an image with the following characteristics.
Art style: {{.ArtStyle}}
Gender: {{.Gender}}
Age group: {{.Age}}
Eye color: {{.Eye}}
Hair style/color: {{.Hair}}
Person's pose: {{.Pose}}
Expression: {{.Expression}}
Gaze: {{.Gaze}}
Clothing/decoration: {{.Clothing}}
Composition: {{.Composition}}
Scene or situation: {{.Scene}}
soft, faint lines and a light color palette to create a dreamlike and fragile appearance.
`))

// WithDefaults returns p with empty fields taken from Defaults.
func (p Preset) WithDefaults() Preset {
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&p.ArtStyle, Defaults.ArtStyle)
	fill(&p.Gender, Defaults.Gender)
	fill(&p.Age, Defaults.Age)
	fill(&p.Eye, Defaults.Eye)
	fill(&p.Hair, Defaults.Hair)
	fill(&p.Pose, Defaults.Pose)
	fill(&p.Expression, Defaults.Expression)
	fill(&p.Gaze, Defaults.Gaze)
	fill(&p.Clothing, Defaults.Clothing)
	fill(&p.Composition, Defaults.Composition)
	fill(&p.Scene, Defaults.Scene)
	return p
}

// Render produces the prompt text for p.
func (p Preset) Render() string {
	var sb strings.Builder
	// Execute only fails on writer errors; strings.Builder never returns one.
	_ = tmpl.Execute(&sb, p.WithDefaults())
	return sb.String()
}

// LoadPresets reads a YAML map of preset name to fields.
func LoadPresets(path string) (map[string]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt presets: %w", err)
	}
	presets := make(map[string]Preset)
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("failed to parse prompt presets: %w", err)
	}
	return presets, nil
}

// Resolve renders the named preset from path. A missing or unset file renders
// the defaults; a missing preset in an existing file is an error.
func Resolve(path, name string, log *slog.Logger) (string, error) {
	if log == nil {
		log = slog.Default()
	}
	if path == "" {
		return Defaults.Render(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Warn("Prompt preset file not found, using defaults", "path", path)
		return Defaults.Render(), nil
	}

	presets, err := LoadPresets(path)
	if err != nil {
		return "", err
	}
	p, ok := presets[name]
	if !ok || p == (Preset{}) {
		return "", fmt.Errorf("%w: %q in %s", ErrPresetNotFound, name, path)
	}
	return p.Render(), nil
}
