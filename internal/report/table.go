package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/brendan.keane/shopcheck/internal/catalog"
	"github.com/brendan.keane/shopcheck/internal/harness"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5B47E0")).
			Padding(0, 2)

	methodColors = map[string]string{
		"GET":    "#61AFEF",
		"POST":   "#98C379",
		"PUT":    "#E5C07B",
		"DELETE": "#E06C75",
		"PATCH":  "#C678DD",
	}

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ABB2BF"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#61AFEF")).
			MarginTop(1)

	gapStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E06C75"))
)

func methodBadge(method string) string {
	color, ok := methodColors[method]
	if !ok {
		color = "#ABB2BF"
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color(color)).
		Width(8).
		Align(lipgloss.Center).
		Render(method)
}

// RenderCatalog lists every case and scenario step: method, path, name and
// expectation.
func RenderCatalog(cat catalog.Catalog) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf(" %d cases ", len(cat.Cases))))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("base " + cat.BaseURL))
	b.WriteString("\n\n")

	nameWidth := 0
	for _, tc := range cat.Cases {
		if len(tc.Name) > nameWidth {
			nameWidth = len(tc.Name)
		}
	}
	nameStyle := lipgloss.NewStyle().Width(nameWidth + 2)

	for _, tc := range cat.Cases {
		b.WriteString(renderCaseLine(tc, nameStyle))
	}

	for _, sc := range cat.Scenarios {
		b.WriteString(sectionStyle.Render("Scenario: " + sc.Name))
		b.WriteString("\n")
		for _, step := range sc.Steps {
			b.WriteString(renderCaseLine(step, nameStyle))
		}
	}
	return b.String()
}

func renderCaseLine(tc harness.TestCase, nameStyle lipgloss.Style) string {
	path := tc.Path
	if tc.BaseURL != "" {
		path = strings.TrimRight(tc.BaseURL, "/") + "/" + strings.TrimLeft(tc.Path, "/")
	}
	return fmt.Sprintf("%s %s %s\n    %s\n",
		methodBadge(tc.HTTPMethod()),
		nameStyle.Render(tc.Name),
		pathStyle.Render(path),
		dimStyle.Render(DescribeExpectation(tc.Expect)),
	)
}

// DescribeExpectation renders an expectation as a single line, e.g.
// "status 200; body field responseCode == 400".
func DescribeExpectation(e harness.Expectation) string {
	var parts []string
	if e.Status != nil {
		parts = append(parts, "status "+strconv.Itoa(*e.Status))
	}
	for _, p := range e.Body {
		switch p.Kind {
		case harness.PredicateJSONField:
			parts = append(parts, fmt.Sprintf("%s == %v", p.Describe(), p.Equals))
		default:
			parts = append(parts, p.Describe())
		}
	}
	if len(parts) == 0 {
		return "any response"
	}
	return strings.Join(parts, "; ")
}

// RenderGaps lists catalog operations an OpenAPI document does not describe.
func RenderGaps(gaps []catalog.Gap) string {
	if len(gaps) == 0 {
		return dimStyle.Render("Every catalog operation is documented") + "\n"
	}
	var b strings.Builder
	b.WriteString(gapStyle.Render(fmt.Sprintf("%d undocumented operations", len(gaps))))
	b.WriteString("\n")
	for _, g := range gaps {
		fmt.Fprintf(&b, "%s %s  %s\n", methodBadge(g.Method), pathStyle.Render(g.Path), dimStyle.Render(g.Case))
	}
	return b.String()
}
