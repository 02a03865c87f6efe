package ui

import (
	"encoding/json"
	"fmt"
	"io"
)

// HealthInfo is what the status command learned from a running instance.
type HealthInfo struct {
	Endpoint string `json:"endpoint"`
	OK       bool   `json:"ok"`
	Index    string `json:"index"`    // "ok", "warning", "failure"
	Upstream string `json:"upstream"` // same grades
	Error    string `json:"error,omitempty"`
}

// StatusRenderer displays service health.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays health info to the terminal.
func (r *StatusRenderer) Render(info HealthInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("searchd: "+info.Endpoint))

	if info.Error != "" {
		_, _ = fmt.Fprintf(r.out, "  %s %s\n",
			r.styles.Error.Render("unreachable:"), info.Error)
		return nil
	}

	overall := r.styles.Success.Render("healthy")
	if !info.OK {
		overall = r.styles.Error.Render("degraded")
	}
	_, _ = fmt.Fprintf(r.out, "  Overall:  %s\n", overall)
	_, _ = fmt.Fprintf(r.out, "  Index:    %s\n", r.renderGrade(info.Index))
	_, _ = fmt.Fprintf(r.out, "  Upstream: %s\n", r.renderGrade(info.Upstream))

	return nil
}

// RenderJSON outputs health info as JSON.
func (r *StatusRenderer) RenderJSON(info HealthInfo) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func (r *StatusRenderer) renderGrade(grade string) string {
	switch grade {
	case "ok":
		return r.styles.Success.Render(grade)
	case "warning":
		return r.styles.Warning.Render(grade)
	case "failure":
		return r.styles.Error.Render(grade)
	default:
		return r.styles.Dim.Render(grade)
	}
}
