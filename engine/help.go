package engine

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/cmdkit/command"
	"github.com/vk/cmdkit/schema"
)

const helpWrapWidth = 64

// renderHelpFor shows help for the named command, or general help when the
// target is empty. An unknown target logs an error and falls back to the
// general listing.
func (e *Engine) renderHelpFor(target string) {
	if target == "" {
		e.renderHelp()
		return
	}
	def, ok := e.registry.Resolve(target)
	if !ok {
		e.logger.Error("Unknown command.", "command", command.Display(target))
		e.renderHelp()
		return
	}
	e.renderCommandHelp(def)
}

// renderHelp writes the general help listing: top-level commands grouped by
// their metadata group, groups and commands both in registration order.
func (e *Engine) renderHelp() {
	out := e.opts.Output

	fmt.Fprintf(out, "\n%s - %s\n", e.opts.Name, e.opts.Description)
	fmt.Fprintf(out, "\nUsage:\n  %s <command> [options]\n", e.opts.Name)

	groups := e.registry.TopLevel()
	width := 0
	for _, g := range groups {
		for _, def := range g.Commands {
			if n := len(def.DisplayName()); n > width {
				width = n
			}
		}
	}

	for _, g := range groups {
		fmt.Fprintf(out, "\n%s:\n", g.Name)
		for _, def := range g.Commands {
			desc := def.Description
			if len(def.Aliases) > 0 {
				desc += fmt.Sprintf(" (aliases: %s)", strings.Join(def.Aliases, ", "))
			}
			writeEntry(out, def.DisplayName(), desc, width)
		}
	}

	fmt.Fprint(out, "\nGlobal options:\n")
	writeEntry(out, "--help, -h", "Show help. Use \"help <command>\" for command help.", width)
	writeEntry(out, "--version, -v", "Show version.", width)
	fmt.Fprintln(out)
}

// renderCommandHelp writes the detailed help for one command: usage,
// options derived from the input schema, aliases, examples and direct
// subcommands.
func (e *Engine) renderCommandHelp(def *command.Definition) {
	out := e.opts.Output
	display := def.DisplayName()

	fmt.Fprintf(out, "\n%s - %s\n", display, def.Description)
	fmt.Fprintf(out, "\nUsage:\n  %s %s [options]\n", e.opts.Name, display)

	attrs := def.Input.Attrs()
	if len(attrs) > 0 {
		labels := make([]string, len(attrs))
		width := 0
		for i, a := range attrs {
			label := "--" + a.Name
			if !a.Type.Equals(cty.Bool) {
				label += " <" + a.Type.FriendlyName() + ">"
			}
			labels[i] = label
			if len(label) > width {
				width = len(label)
			}
		}
		fmt.Fprint(out, "\nOptions:\n")
		for i, a := range attrs {
			desc := a.Description
			switch {
			case a.Default != cty.NilVal:
				desc += fmt.Sprintf(" (default: %v)", schema.Native(a.Default))
			case a.Optional:
				desc += " (optional)"
			default:
				desc += " (required)"
			}
			writeEntry(out, labels[i], strings.TrimSpace(desc), width)
		}
	}

	if len(def.Aliases) > 0 {
		fmt.Fprintf(out, "\nAliases: %s\n", strings.Join(def.Aliases, ", "))
	}

	if len(def.Examples) > 0 {
		fmt.Fprint(out, "\nExamples:\n")
		for _, ex := range def.Examples {
			fmt.Fprintf(out, "  %s %s%s\n", e.opts.Name, display, renderExampleOptions(ex))
		}
	}

	if children := e.registry.ChildrenOf(def.Name); len(children) > 0 {
		width := 0
		for _, child := range children {
			if n := len(child.DisplayName()); n > width {
				width = n
			}
		}
		fmt.Fprint(out, "\nSubcommands:\n")
		for _, child := range children {
			writeEntry(out, child.DisplayName(), child.Description, width)
		}
	}
	fmt.Fprintln(out)
}

// writeEntry prints one aligned, description-wrapped help line.
func writeEntry(out io.Writer, label, desc string, width int) {
	wrapped := strings.Split(wordwrap.WrapString(desc, helpWrapWidth), "\n")
	fmt.Fprintf(out, "  %-*s  %s\n", width, label, wrapped[0])
	for _, line := range wrapped[1:] {
		fmt.Fprintf(out, "  %-*s  %s\n", width, "", line)
	}
}

// renderExampleOptions turns an example input mapping into display-form
// option text, keys sorted for stable output.
func renderExampleOptions(ex map[string]any) string {
	keys := make([]string, 0, len(ex))
	for k := range ex {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		if b, ok := ex[k].(bool); ok && b {
			sb.WriteString(" --" + k)
			continue
		}
		sb.WriteString(fmt.Sprintf(" --%s %v", k, ex[k]))
	}
	return sb.String()
}
