// Package render formats per-tick reports for the console.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"github.com/hecrp/trainmon/internal/monitor"
)

const (
	clearScreen = "\x1b[2J\x1b[H"

	// cpuWindow bounds the sparkline history. Display only; nothing is
	// persisted.
	cpuWindow = 60

	graphWidth  = 50
	graphHeight = 4
)

// Options controls console output.
type Options struct {
	// Color enables lipgloss styling.
	Color bool
	// InPlace redraws over the previous block instead of appending,
	// for interactive terminals.
	InPlace bool
	// ShowTraining makes the training section part of the block, with
	// an explicit marker when the log is unreadable.
	ShowTraining bool
}

// Console renders one formatted block per Report.
type Console struct {
	out         io.Writer
	processName string
	opts        Options
	cpuHistory  []float64
}

// NewConsole creates a renderer for the given process name.
func NewConsole(out io.Writer, processName string, opts Options) *Console {
	return &Console{out: out, processName: processName, opts: opts}
}

// Render writes the formatted block for one tick.
func (c *Console) Render(rep monitor.Report) {
	c.cpuHistory = append(c.cpuHistory, rep.System.CPUPercent)
	if len(c.cpuHistory) > cpuWindow {
		c.cpuHistory = c.cpuHistory[1:]
	}

	var b strings.Builder

	if c.opts.InPlace {
		b.WriteString(clearScreen)
	}

	header := fmt.Sprintf("tick %d · %s", rep.Tick, rep.Timestamp.Format("15:04:05"))
	b.WriteString(c.style(titleStyle, "LLM Training Monitor"))
	b.WriteString("  ")
	b.WriteString(c.style(timestampStyle, header))
	b.WriteString("\n")
	b.WriteString(c.style(commentStyle, strings.Repeat("─", 44)))
	b.WriteString("\n")

	c.writeSystem(&b, rep.System)
	c.writeGPU(&b, rep.GPU)
	c.writeProcess(&b, rep.Process)
	if c.opts.ShowTraining {
		c.writeTraining(&b, rep.Training)
	}
	c.writeGraph(&b)

	if !c.opts.InPlace {
		b.WriteString("\n")
	}

	fmt.Fprint(c.out, b.String())
}

func (c *Console) writeSystem(b *strings.Builder, sys monitor.SystemSnapshot) {
	fmt.Fprintf(b, "%s %s\n",
		c.style(labelStyle, "CPU:    "),
		c.style(infoStyle, fmt.Sprintf("%.2f%%", sys.CPUPercent)),
	)
	fmt.Fprintf(b, "%s %s\n",
		c.style(labelStyle, "Memory: "),
		c.style(infoStyle, fmt.Sprintf("%s / %s",
			humanize.IBytes(sys.MemoryUsed), humanize.IBytes(sys.MemoryTotal))),
	)
}

func (c *Console) writeGPU(b *strings.Builder, gpu *monitor.GpuSnapshot) {
	label := c.style(labelStyle, "GPU:    ")
	if gpu == nil {
		fmt.Fprintf(b, "%s %s\n", label, c.style(warningStyle, "unavailable"))
		return
	}

	line := fmt.Sprintf("%d%% | %s / %s | %d°C",
		gpu.Utilization,
		humanize.IBytes(gpu.MemoryUsed), humanize.IBytes(gpu.MemoryTotal),
		gpu.Temperature,
	)
	if gpu.Name != "" {
		line = gpu.Name + " | " + line
	}
	fmt.Fprintf(b, "%s %s\n", label, c.style(infoStyle, line))
}

func (c *Console) writeProcess(b *strings.Builder, proc *monitor.ProcessSnapshot) {
	label := c.style(labelStyle, "Process:")
	if proc == nil {
		fmt.Fprintf(b, "%s %s\n", label,
			c.style(errorStyle, fmt.Sprintf("%q not found", c.processName)))
		return
	}

	fmt.Fprintf(b, "%s %s\n", label,
		c.style(infoStyle, fmt.Sprintf("%s (pid %d)  %.2f%% CPU | %s",
			proc.Name, proc.PID, proc.CPUPercent, humanize.IBytes(proc.MemoryRSS))),
	)
}

func (c *Console) writeTraining(b *strings.Builder, tr *monitor.TrainingSnapshot) {
	label := c.style(labelStyle, "Metrics:")
	if tr == nil {
		fmt.Fprintf(b, "%s %s\n", label, c.style(warningStyle, "training log unavailable"))
		return
	}
	if len(tr.Metrics) == 0 {
		fmt.Fprintf(b, "%s %s\n", label, c.style(commentStyle, "no matches in log tail"))
		return
	}
	fmt.Fprintf(b, "%s\n", label)
	for _, m := range tr.Metrics {
		fmt.Fprintf(b, "  %s\n", c.style(infoStyle, m))
	}
}

func (c *Console) writeGraph(b *strings.Builder) {
	if len(c.cpuHistory) < 2 {
		return
	}
	graph := asciigraph.Plot(c.cpuHistory,
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
	)
	fmt.Fprintf(b, "%s\n%s\n", graph, c.style(commentStyle, "system cpu %"))
}

func (c *Console) style(s lipgloss.Style, text string) string {
	if !c.opts.Color {
		return text
	}
	return s.Render(text)
}
