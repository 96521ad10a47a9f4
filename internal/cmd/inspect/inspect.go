// Package inspect parses inspector flags and prints one view of a recording.
package inspect

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	entrypoint "github.com/louisbranch/demoscope/internal/platform/cmd"
	"github.com/louisbranch/demoscope/internal/services/inspector/filter"
	"github.com/louisbranch/demoscope/internal/services/inspector/recording"
	"github.com/louisbranch/demoscope/internal/services/inspector/render"
	"github.com/louisbranch/demoscope/internal/services/inspector/script"
	"github.com/louisbranch/demoscope/internal/services/inspector/session"
	"github.com/louisbranch/demoscope/internal/services/inspector/storage"
	"github.com/louisbranch/demoscope/internal/services/inspector/storage/sqlite"
)

// Views accepted by -view.
const (
	ViewEntities       = "entities"
	ViewBaseline       = "baseline"
	ViewFields         = "fields"
	ViewBaselineFields = "baseline-fields"
	ViewTables         = "tables"
	ViewItems          = "items"
)

// TickEnd selects the last tick of the recording.
const TickEnd = "end"

// Config holds inspect command configuration.
type Config struct {
	RecordingPath string `env:"DEMOSCOPE_RECORDING"`
	LibraryPath   string `env:"DEMOSCOPE_LIBRARY"`
	Name          string `env:"DEMOSCOPE_RECORDING_NAME"`
	Import        bool   `env:"DEMOSCOPE_IMPORT"`
	Tick          string `env:"DEMOSCOPE_TICK"         envDefault:"end"`
	View          string `env:"DEMOSCOPE_VIEW"         envDefault:"entities"`
	Entity        int    `env:"DEMOSCOPE_ENTITY"       envDefault:"-1"`
	Table         string `env:"DEMOSCOPE_TABLE"`
	Filter        string `env:"DEMOSCOPE_FILTER"`
	Query         string `env:"DEMOSCOPE_QUERY"`
	MatchCase     bool   `env:"DEMOSCOPE_MATCH_CASE"`
	Regex         bool   `env:"DEMOSCOPE_REGEX"`
	ShowPath      bool   `env:"DEMOSCOPE_SHOW_PATH"`
	ShowKind      bool   `env:"DEMOSCOPE_SHOW_KIND"`
	Script        string `env:"DEMOSCOPE_SCRIPT"`
	Locale        string `env:"DEMOSCOPE_LOCALE"       envDefault:"en-US"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.RecordingPath, "recording", cfg.RecordingPath, "recording file to inspect or import")
	fs.StringVar(&cfg.LibraryPath, "library", cfg.LibraryPath, "SQLite recording library path")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "recording name in the library")
	fs.BoolVar(&cfg.Import, "import", cfg.Import, "store -recording in the library under -name and exit")
	fs.StringVar(&cfg.Tick, "tick", cfg.Tick, `tick to inspect, -1 for the state before the first tick, or "end"`)
	fs.StringVar(&cfg.View, "view", cfg.View, "entities, baseline, fields, baseline-fields, tables or items")
	fs.IntVar(&cfg.Entity, "entity", cfg.Entity, "entity index for the fields views")
	fs.StringVar(&cfg.Table, "table", cfg.Table, "string table name for the items view")
	fs.StringVar(&cfg.Filter, "filter", cfg.Filter, "AIP-160 filter expression")
	fs.StringVar(&cfg.Query, "query", cfg.Query, "text to look for in entity or field names")
	fs.BoolVar(&cfg.MatchCase, "match-case", cfg.MatchCase, "make -query case sensitive")
	fs.BoolVar(&cfg.Regex, "regex", cfg.Regex, "treat -query as a regular expression")
	fs.BoolVar(&cfg.ShowPath, "show-path", cfg.ShowPath, "include raw field paths")
	fs.BoolVar(&cfg.ShowKind, "show-kind", cfg.ShowKind, "include runtime value kinds")
	fs.StringVar(&cfg.Script, "script", cfg.Script, "Lua script to run instead of printing a view")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for number formatting")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the inspect command, writing to stdout.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceInspect, func(ctx context.Context) error {
		return run(ctx, cfg, os.Stdout)
	})
}

func run(ctx context.Context, cfg Config, out io.Writer) error {
	if err := validate(cfg); err != nil {
		return err
	}

	var library storage.RecordingStore
	if path := strings.TrimSpace(cfg.LibraryPath); path != "" {
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return fmt.Errorf("open library: %w", err)
		}
		defer store.Close()
		library = store
	}

	if cfg.Import {
		return importRecording(ctx, library, cfg, out)
	}

	data, err := loadRecording(ctx, library, cfg)
	if err != nil {
		return err
	}
	sess, err := session.FromBytes(ctx, data, recording.Open)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := seek(ctx, sess, cfg.Tick); err != nil {
		return err
	}
	if cfg.Script != "" {
		return script.RunFile(ctx, sess, cfg.Script, out)
	}
	return printView(ctx, sess, cfg, out)
}

func validate(cfg Config) error {
	switch cfg.View {
	case ViewEntities, ViewBaseline, ViewFields, ViewBaselineFields, ViewTables, ViewItems:
	default:
		return fmt.Errorf("unknown view %q", cfg.View)
	}
	hasPath := strings.TrimSpace(cfg.RecordingPath) != ""
	hasName := strings.TrimSpace(cfg.Name) != ""
	if cfg.Import {
		if !hasPath || strings.TrimSpace(cfg.LibraryPath) == "" {
			return errors.New("-import requires -recording and -library")
		}
		return nil
	}
	if hasPath == hasName {
		return errors.New("exactly one of -recording or -name is required")
	}
	if hasName && strings.TrimSpace(cfg.LibraryPath) == "" {
		return errors.New("-name requires -library")
	}
	if (cfg.View == ViewFields || cfg.View == ViewBaselineFields) && cfg.Entity < 0 {
		return fmt.Errorf("view %s requires -entity", cfg.View)
	}
	if cfg.Entity > math.MaxInt32 {
		return fmt.Errorf("-entity %d out of range", cfg.Entity)
	}
	if cfg.View == ViewItems && cfg.Table == "" {
		return errors.New("view items requires -table")
	}
	return nil
}

func importRecording(ctx context.Context, library storage.RecordingStore, cfg Config, out io.Writer) error {
	data, err := os.ReadFile(filepath.Clean(cfg.RecordingPath))
	if err != nil {
		return fmt.Errorf("read recording: %w", err)
	}
	probe, err := session.FromBytes(ctx, data, recording.Open)
	if err != nil {
		return err
	}
	_ = probe.Close()

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		base := filepath.Base(cfg.RecordingPath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := library.Put(ctx, storage.Recording{Name: name, Data: data}); err != nil {
		return fmt.Errorf("store recording %q: %w", name, err)
	}
	_, err = fmt.Fprintf(out, "imported %s (%s bytes)\n", name, render.Printer(cfg.Locale).Sprintf("%d", len(data)))
	return err
}

func loadRecording(ctx context.Context, library storage.RecordingStore, cfg Config) ([]byte, error) {
	if path := strings.TrimSpace(cfg.RecordingPath); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read recording: %w", err)
		}
		return data, nil
	}
	rec, err := library.Get(ctx, strings.TrimSpace(cfg.Name))
	if err != nil {
		return nil, fmt.Errorf("load recording %q: %w", cfg.Name, err)
	}
	return rec.Data, nil
}

// seek positions sess at tick, which is a number or TickEnd. TickEnd on a
// recording of unknown length leaves the session where it is.
func seek(ctx context.Context, sess *session.Session, tick string) error {
	tick = strings.TrimSpace(tick)
	if tick == "" || tick == TickEnd {
		total, err := sess.TotalTicks(ctx)
		if err != nil {
			return nil
		}
		return sess.RunToTick(ctx, total)
	}
	target, err := strconv.ParseInt(tick, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid -tick %q", tick)
	}
	return sess.RunToTick(ctx, int32(target))
}

func printView(ctx context.Context, sess *session.Session, cfg Config, out io.Writer) error {
	r := render.New(out, render.Options{Locale: cfg.Locale, ShowPath: cfg.ShowPath, ShowKind: cfg.ShowKind})
	total, err := sess.TotalTicks(ctx)
	if err := r.Status(sess.Tick(), total, err == nil); err != nil {
		return err
	}

	q := session.Query{
		Filter: cfg.Filter,
		Text:   filter.Matcher{Query: cfg.Query, MatchCase: cfg.MatchCase, Regex: cfg.Regex},
	}
	switch cfg.View {
	case ViewEntities, ViewBaseline:
		baseline := cfg.View == ViewBaseline
		items, found, err := sess.ListEntitiesFiltered(ctx, q, baseline)
		if err != nil {
			return err
		}
		if !found {
			return r.Absent(cfg.View)
		}
		return r.Entities(items)
	case ViewFields, ViewBaselineFields:
		records, found, err := sess.ListEntityFieldsFiltered(ctx, session.FieldQuery{
			Query:    q,
			Index:    int32(cfg.Entity),
			Baseline: cfg.View == ViewBaselineFields,
		})
		if err != nil {
			return err
		}
		if !found {
			return r.Absent(fmt.Sprintf("entity %d", cfg.Entity))
		}
		return r.Fields(records)
	case ViewTables:
		tables, found := sess.ListStringTables(ctx)
		if !found {
			return r.Absent("string tables")
		}
		return r.Tables(tables)
	default:
		records, found := sess.ListStringTableItems(ctx, cfg.Table)
		if !found {
			return r.Absent("table " + cfg.Table)
		}
		return r.Items(records)
	}
}
