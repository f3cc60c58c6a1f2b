package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	pkgerrors "github.com/pkg/errors"

	"github.com/mmichie/ensemble/pkg/ensemble/pipeline"
)

// renderer turns the pipeline event stream into terminal output. Chunk
// events print as raw text under a section header emitted once per
// stream section.
type renderer struct {
	out     io.Writer
	section pipeline.EventType
	fatal   string

	status   lipgloss.Style
	header   lipgloss.Style
	warn     lipgloss.Style
	errStyle lipgloss.Style
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{
		out:      out,
		status:   lipgloss.NewStyle().Faint(true),
		header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		warn:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		errStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}
}

func (r *renderer) handle(ev pipeline.Event) error {
	switch ev.Type {
	case pipeline.EventStatus:
		fmt.Fprintln(r.out, r.status.Render(ev.Message))

	case pipeline.EventInitialData:
		fmt.Fprintln(r.out, r.header.Render("Pipeline: "+ev.PipelineName))
		if ev.ClassifierReasoning != "" {
			fmt.Fprintln(r.out, r.status.Render(ev.ClassifierReasoning))
		}

	case pipeline.EventModelAChunk:
		r.enterSection(ev.Type, "Draft A")
		fmt.Fprint(r.out, ev.Text)

	case pipeline.EventModelBChunk:
		r.enterSection(ev.Type, "Draft B")
		fmt.Fprint(r.out, ev.Text)

	case pipeline.EventSynthesisChunk:
		r.enterSection(ev.Type, "Final response")
		fmt.Fprint(r.out, ev.Text)

	case pipeline.EventFallbackLog:
		r.endSection()
		fmt.Fprintln(r.out, r.warn.Render(ev.Log))

	case pipeline.EventDone:
		r.endSection()
		if ev.Message != "" && ev.Message != "Pipeline completed." {
			r.fatal = ev.Message
			fmt.Fprintln(r.out, r.errStyle.Render(ev.Message))
		}

	case pipeline.EventError:
		r.endSection()
		fmt.Fprintln(r.out, r.errStyle.Render(ev.Message))
		return pkgerrors.New(ev.Message)
	}
	return nil
}

// finish reports a run that terminated with the fatal message
func (r *renderer) finish() error {
	if r.fatal != "" {
		return pkgerrors.New(r.fatal)
	}
	return nil
}

func (r *renderer) enterSection(section pipeline.EventType, title string) {
	if r.section == section {
		return
	}
	r.endSection()
	r.section = section
	fmt.Fprintln(r.out, r.header.Render("── "+title+" ──"))
}

func (r *renderer) endSection() {
	if r.section != "" {
		fmt.Fprintln(r.out)
		r.section = ""
	}
}
