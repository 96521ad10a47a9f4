// Package render writes inspector listings as aligned plain text for the
// command line and for MCP text content.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/louisbranch/demoscope/internal/services/inspector/session"
	"github.com/louisbranch/demoscope/internal/services/inspector/snapshot"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale formats numbers when Options.Locale is empty or unknown.
const DefaultLocale = "en-US"

// Options selects optional columns and the number locale.
type Options struct {
	Locale   string
	ShowPath bool
	ShowKind bool
}

// Renderer writes listings to one writer.
type Renderer struct {
	w    io.Writer
	p    *message.Printer
	opts Options
}

// New returns a Renderer writing to w.
func New(w io.Writer, opts Options) *Renderer {
	return &Renderer{w: w, p: Printer(opts.Locale), opts: opts}
}

// Printer returns a number-aware printer for locale, falling back to
// DefaultLocale.
func Printer(locale string) *message.Printer {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || locale == "" {
		tag = language.MustParse(DefaultLocale)
	}
	return message.NewPrinter(tag)
}

// Tick formats a tick number with locale digit grouping, e.g. "12,345".
func (r *Renderer) Tick(tick int32) string {
	return r.p.Sprintf("%d", tick)
}

// Status writes the current position, with the stream length when known.
func (r *Renderer) Status(tick int32, total int32, totalKnown bool) error {
	if !totalKnown {
		_, err := fmt.Fprintf(r.w, "tick %s\n", r.Tick(tick))
		return err
	}
	_, err := fmt.Fprintf(r.w, "tick %s / %s\n", r.Tick(tick), r.Tick(total))
	return err
}

// Absent reports that what has no state at the current tick.
func (r *Renderer) Absent(what string) error {
	_, err := fmt.Fprintf(r.w, "%s: not available\n", what)
	return err
}

// Entities writes one row per entity.
func (r *Renderer) Entities(items []session.EntityItem) error {
	tw := r.table()
	fmt.Fprintln(tw, "INDEX\tCLASS")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\n", it.Index, it.Name)
	}
	return tw.Flush()
}

// Fields writes one row per field record. Handle fields get a trailing
// marker naming the referenced entity.
func (r *Renderer) Fields(records []snapshot.FieldRecord) error {
	tw := r.table()
	fmt.Fprintln(tw, r.fieldRow("PATH", "NAME", "TYPE", "KIND", "VALUE", ""))
	for _, rec := range records {
		fmt.Fprintln(tw, r.fieldRow(
			rec.JoinedRawPath(),
			rec.JoinedNamedPath(),
			rec.DeclaredType,
			rec.RuntimeKind,
			rec.Value,
			HandleMarker(rec),
		))
	}
	return tw.Flush()
}

func (r *Renderer) fieldRow(path, name, typ, kind, value, marker string) string {
	cols := make([]string, 0, 6)
	if r.opts.ShowPath {
		cols = append(cols, path)
	}
	cols = append(cols, name, typ)
	if r.opts.ShowKind {
		cols = append(cols, kind)
	}
	cols = append(cols, value)
	row := strings.Join(cols, "\t")
	if marker != "" {
		row += "\t" + marker
	}
	return row
}

// HandleMarker describes where a handle field points, or "" for other
// fields.
func HandleMarker(rec snapshot.FieldRecord) string {
	index, linked, valid := rec.HandleLink()
	switch {
	case !linked:
		return ""
	case !valid:
		return "-> (invalid)"
	default:
		return fmt.Sprintf("-> #%d", index)
	}
}

// Tables writes one row per string table.
func (r *Renderer) Tables(items []session.StringTableItem) error {
	for _, it := range items {
		if _, err := fmt.Fprintln(r.w, it.Name); err != nil {
			return err
		}
	}
	return nil
}

// Items writes one row per populated string table slot.
func (r *Renderer) Items(records []snapshot.ItemRecord) error {
	tw := r.table()
	fmt.Fprintln(tw, "ITEM\tSTRING\tUSER DATA")
	for _, rec := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", rec.Index, rec.DisplayString(), rec.HexUserData())
	}
	return tw.Flush()
}

func (r *Renderer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
}
