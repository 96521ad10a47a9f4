// Package session is the introspection facade over one open replay. It owns
// the parser collaborator, advances it on request and answers read-only
// queries with freshly built snapshots.
//
// A Session serializes its callers: queries share a read lock and RunToTick
// takes the write lock.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	apperrors "github.com/louisbranch/demoscope/internal/platform/errors"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/handle"
	"github.com/louisbranch/demoscope/internal/services/inspector/parser"
	"github.com/louisbranch/demoscope/internal/services/inspector/snapshot"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/louisbranch/demoscope/internal/services/inspector/session"

// EntityItem identifies one entity in a listing.
type EntityItem struct {
	Index int32
	// Name is the entity's serializer (class) name.
	Name string
}

// StringTableItem identifies one string table in a listing.
type StringTableItem struct {
	Name string
}

type options struct {
	seekToEnd bool
	tracer    trace.TracerProvider
}

// Option configures Open.
type Option func(*options)

// WithSeekToEnd positions the session at the last tick after opening. It is
// skipped for streams that cannot report their length.
func WithSeekToEnd() Option {
	return func(o *options) { o.seekToEnd = true }
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp }
}

// Session is an open replay.
type Session struct {
	mu     sync.RWMutex
	p      parser.Parser
	tracer trace.Tracer
}

// Open constructs a session over r using opener.
func Open(ctx context.Context, r io.ReadSeeker, opener parser.Opener, opts ...Option) (*Session, error) {
	if opener == nil {
		return nil, errors.New("parser opener is required")
	}
	if r == nil {
		return nil, apperrors.New(apperrors.CodeMalformedInput, "recording reader is nil")
	}
	p, err := opener(r)
	if err != nil {
		return nil, apperrors.WrapWithMetadata(apperrors.CodeMalformedInput,
			fmt.Sprintf("open recording: %v", err),
			map[string]string{"Reason": err.Error()}, err)
	}
	return FromParser(ctx, p, opts...)
}

// FromBytes constructs a session over an in-memory recording.
func FromBytes(ctx context.Context, data []byte, opener parser.Opener, opts ...Option) (*Session, error) {
	return Open(ctx, bytes.NewReader(data), opener, opts...)
}

// FromParser wraps an already constructed parser.
func FromParser(ctx context.Context, p parser.Parser, opts ...Option) (*Session, error) {
	if p == nil {
		return nil, errors.New("parser is required")
	}
	o := options{tracer: otel.GetTracerProvider()}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Session{p: p, tracer: o.tracer.Tracer(instrumentationName)}

	if o.seekToEnd {
		total, err := s.TotalTicks(ctx)
		if err == nil {
			if err := s.RunToTick(ctx, total); err != nil {
				return nil, err
			}
		} else if apperrors.CodeOf(err) != apperrors.CodeTotalTicksUnknown {
			return nil, err
		}
	}
	return s, nil
}

// Close releases the parser when it holds resources.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Tick returns the current tick, -1 before the first tick.
func (s *Session) Tick() int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p.Tick()
}

// TotalTicks returns the last tick of the stream.
func (s *Session) TotalTicks(ctx context.Context) (int32, error) {
	_, span := s.tracer.Start(ctx, "session.TotalTicks")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	total, err := s.p.TotalTicks()
	if err != nil {
		return 0, fail(span, apperrors.Wrap(apperrors.CodeTotalTicksUnknown,
			fmt.Sprintf("total ticks: %v", err), err))
	}
	span.SetAttributes(attribute.Int("demoscope.total_ticks", int(total)))
	return total, nil
}

// RunToTick advances or rewinds to target. Asking for the current tick is a
// no-op. On failure the session stays where it was.
func (s *Session) RunToTick(ctx context.Context, target int32) error {
	_, span := s.tracer.Start(ctx, "session.RunToTick",
		trace.WithAttributes(attribute.Int("demoscope.target_tick", int(target))))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.p.Tick()
	span.SetAttributes(attribute.Int("demoscope.from_tick", int(current)))
	if target == current {
		return nil
	}
	if err := s.p.RunToTick(target); err != nil {
		return fail(span, apperrors.WrapWithMetadata(apperrors.CodeTickUnreachable,
			fmt.Sprintf("run to tick %d from %d: %v", target, current, err),
			map[string]string{
				"Target":  strconv.Itoa(int(target)),
				"Current": strconv.Itoa(int(current)),
			}, err))
	}
	return nil
}

// ListEntities lists live entities by ascending index. It reports false when
// the parser has no entity state yet.
func (s *Session) ListEntities(ctx context.Context) ([]EntityItem, bool) {
	return s.listEntities(ctx, "session.ListEntities", false)
}

// ListBaselineEntities lists baseline entities by ascending index.
func (s *Session) ListBaselineEntities(ctx context.Context) ([]EntityItem, bool) {
	return s.listEntities(ctx, "session.ListBaselineEntities", true)
}

func (s *Session) listEntities(ctx context.Context, name string, baseline bool) ([]EntityItem, bool) {
	_, span := s.tracer.Start(ctx, name)
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.p.Entities()
	if !ok {
		span.SetAttributes(attribute.Bool("demoscope.found", false))
		return nil, false
	}
	indices := c.Indices()
	lookup := c.Get
	if baseline {
		indices = c.BaselineIndices()
		lookup = c.Baseline
	}
	items := make([]EntityItem, 0, len(indices))
	for _, idx := range indices {
		e, _ := lookup(idx)
		items = append(items, EntityItem{Index: idx, Name: e.Serializer.Name})
	}
	span.SetAttributes(attribute.Int("demoscope.count", len(items)))
	return items, true
}

// ListEntityFields snapshots the fields of the live entity at index. It
// reports false when no such entity exists; an entity without fields yields
// an empty, present list.
func (s *Session) ListEntityFields(ctx context.Context, index int32) ([]snapshot.FieldRecord, bool) {
	return s.listFields(ctx, "session.ListEntityFields", index, false)
}

// ListBaselineEntityFields snapshots the fields of the baseline at index.
func (s *Session) ListBaselineEntityFields(ctx context.Context, index int32) ([]snapshot.FieldRecord, bool) {
	return s.listFields(ctx, "session.ListBaselineEntityFields", index, true)
}

func (s *Session) listFields(ctx context.Context, name string, index int32, baseline bool) ([]snapshot.FieldRecord, bool) {
	_, span := s.tracer.Start(ctx, name, trace.WithAttributes(attribute.Int("demoscope.entity", int(index))))
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.p.Entities()
	if !ok {
		return nil, false
	}
	lookup := c.Get
	if baseline {
		lookup = c.Baseline
	}
	e, ok := lookup(index)
	if !ok {
		span.SetAttributes(attribute.Bool("demoscope.found", false))
		return nil, false
	}
	records := snapshot.Entity(e)
	span.SetAttributes(attribute.Int("demoscope.count", len(records)))
	return records, true
}

// ListStringTables lists string tables in creation order.
func (s *Session) ListStringTables(ctx context.Context) ([]StringTableItem, bool) {
	_, span := s.tracer.Start(ctx, "session.ListStringTables")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	tables, ok := s.p.StringTables()
	if !ok {
		return nil, false
	}
	list := tables.List()
	items := make([]StringTableItem, 0, len(list))
	for _, t := range list {
		items = append(items, StringTableItem{Name: t.Name()})
	}
	span.SetAttributes(attribute.Int("demoscope.count", len(items)))
	return items, true
}

// ListStringTableItems snapshots the items of the table named exactly name.
func (s *Session) ListStringTableItems(ctx context.Context, name string) ([]snapshot.ItemRecord, bool) {
	_, span := s.tracer.Start(ctx, "session.ListStringTableItems", trace.WithAttributes(attribute.String("demoscope.table", name)))
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	tables, ok := s.p.StringTables()
	if !ok {
		return nil, false
	}
	t, ok := tables.Find(name)
	if !ok {
		span.SetAttributes(attribute.Bool("demoscope.found", false))
		return nil, false
	}
	records := snapshot.Table(t)
	span.SetAttributes(attribute.Int("demoscope.count", len(records)))
	return records, true
}

// IsHandleValid reports whether h refers to an entity.
func (s *Session) IsHandleValid(h uint32) bool {
	return handle.IsValid(h)
}

// HandleToIndex returns the entity index encoded in h.
func (s *Session) HandleToIndex(h uint32) int32 {
	return handle.ToIndex(h)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
