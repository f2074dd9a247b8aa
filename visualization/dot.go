// Package visualization renders the traffic light phase machine as Graphviz diagrams
package visualization

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/anggasct/trafficlight"
)

// Source describes the phase machine to render. *trafficlight.TrafficLight implements it.
type Source interface {
	Transitions() []trafficlight.Transition
	InitialPhase() trafficlight.Phase
	CurrentPhase() trafficlight.Phase
}

// DOTGenerator generates Graphviz DOT format representations of the phase machine
type DOTGenerator struct {
	source  Source
	options DOTOptions
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowEventLabels  bool
	HighlightCurrent bool
	RankDirection    string // "TB", "LR", "BT", "RL"
	NodeShape        string
	TransitionStyle  string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowEventLabels:  true,
		HighlightCurrent: true,
		RankDirection:    "LR",
		NodeShape:        "circle",
		TransitionStyle:  "solid",
	}
}

// NewDOTGenerator creates a new DOT generator for the given source
func NewDOTGenerator(source Source, options ...DOTOptions) *DOTGenerator {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator{
		source:  source,
		options: opts,
	}
}

// Generate creates a DOT representation of the phase machine
func (g *DOTGenerator) Generate() (string, error) {
	if g.source == nil {
		return "", fmt.Errorf("no source to render")
	}

	transitions := g.source.Transitions()
	if len(transitions) == 0 {
		return "", fmt.Errorf("source has no transitions")
	}

	var dot strings.Builder

	dot.WriteString("digraph TrafficLight {\n")
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString(fmt.Sprintf("  node [shape=%s];\n", g.options.NodeShape))
	dot.WriteString("  edge [fontsize=10];\n\n")

	g.generatePhases(&dot, transitions)
	g.generateTransitions(&dot, transitions)

	dot.WriteString("}\n")

	return dot.String(), nil
}

// generatePhases writes one node per phase in order of first appearance
func (g *DOTGenerator) generatePhases(dot *strings.Builder, transitions []trafficlight.Transition) {
	initial := g.source.InitialPhase()
	current := g.source.CurrentPhase()

	dot.WriteString("  // Phases\n")

	seen := make(map[trafficlight.Phase]bool)
	for _, t := range transitions {
		for _, phase := range []trafficlight.Phase{t.From, t.To} {
			if seen[phase] {
				continue
			}
			seen[phase] = true
			g.generatePhaseNode(dot, phase, phase == initial, g.options.HighlightCurrent && phase == current)
		}
	}
	dot.WriteString("\n")
}

func (g *DOTGenerator) generatePhaseNode(dot *strings.Builder, phase trafficlight.Phase, isInitial, isCurrent bool) {
	label := phase.String()
	if isInitial {
		label += "\\n(initial)"
	}

	style := "filled"
	if isCurrent {
		style += ",bold"
	}

	dot.WriteString(fmt.Sprintf("  \"%s\" [style=\"%s\" fillcolor=%s fontcolor=white label=\"%s\"];\n",
		phase, style, phaseColor(phase), label))
}

// generateTransitions writes one edge per transition
func (g *DOTGenerator) generateTransitions(dot *strings.Builder, transitions []trafficlight.Transition) {
	dot.WriteString("  // Transitions\n")

	for _, t := range transitions {
		attrs := fmt.Sprintf("style=%s", g.options.TransitionStyle)
		if g.options.ShowEventLabels && t.EventName != "" {
			attrs += fmt.Sprintf(" label=\"%s\"", t.EventName)
		}
		dot.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [%s];\n", t.From, t.To, attrs))
	}
}

func phaseColor(phase trafficlight.Phase) string {
	switch phase {
	case trafficlight.Red:
		return "red"
	case trafficlight.Green:
		return "green"
	default:
		return "gray"
	}
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

// SVGGenerator generates SVG representations by calling Graphviz
type SVGGenerator struct {
	dotGenerator *DOTGenerator
}

// NewSVGGenerator creates a new SVG generator
func NewSVGGenerator(source Source, options ...DOTOptions) *SVGGenerator {
	return &SVGGenerator{
		dotGenerator: NewDOTGenerator(source, options...),
	}
}

// Generate creates an SVG representation of the phase machine
func (g *SVGGenerator) Generate() (string, error) {
	dotContent, err := g.dotGenerator.Generate()
	if err != nil {
		return "", err
	}

	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(dotContent)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed)", err)
	}

	return out.String(), nil
}

// GenerateSVG creates an SVG representation of the phase machine
func (g *DOTGenerator) GenerateSVG() (string, error) {
	svgGen := &SVGGenerator{dotGenerator: g}
	return svgGen.Generate()
}
