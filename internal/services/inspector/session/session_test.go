package session

import (
	"context"
	"errors"
	"os"
	"reflect"
	"sync"
	"testing"

	apperrors "github.com/louisbranch/demoscope/internal/platform/errors"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/entity"
	"github.com/louisbranch/demoscope/internal/services/inspector/domain/stringtable"
	"github.com/louisbranch/demoscope/internal/services/inspector/recording"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func sampleBytes(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../recording/testdata/sample.json")
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	return data
}

func openSample(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s, err := FromBytes(context.Background(), sampleBytes(t), recording.Open, opts...)
	if err != nil {
		t.Fatalf("open sample: %v", err)
	}
	return s
}

// fakeParser is a minimal collaborator with scripted failures.
type fakeParser struct {
	tick       int32
	total      int32
	totalErr   error
	runErr     error
	runCalls   int
	entities   *entity.Container
	tables     *stringtable.Tables
	closeCalls int
}

func (f *fakeParser) Tick() int32 { return f.tick }

func (f *fakeParser) TotalTicks() (int32, error) { return f.total, f.totalErr }

func (f *fakeParser) RunToTick(target int32) error {
	f.runCalls++
	if f.runErr != nil {
		return f.runErr
	}
	f.tick = target
	return nil
}

func (f *fakeParser) Entities() (*entity.Container, bool) {
	return f.entities, f.entities != nil
}

func (f *fakeParser) StringTables() (*stringtable.Tables, bool) {
	return f.tables, f.tables != nil
}

func (f *fakeParser) Close() error {
	f.closeCalls++
	return nil
}

func TestOpenMalformedInput(t *testing.T) {
	_, err := FromBytes(context.Background(), []byte("not a recording"), recording.Open)
	if !errors.Is(err, apperrors.New(apperrors.CodeMalformedInput, "")) {
		t.Fatalf("err = %v, want MALFORMED_INPUT", err)
	}
}

func TestBeforeFirstTickEverythingIsAbsent(t *testing.T) {
	s := openSample(t)
	ctx := context.Background()

	if s.Tick() != -1 {
		t.Fatalf("tick = %d", s.Tick())
	}
	if _, ok := s.ListEntities(ctx); ok {
		t.Fatal("entities should be absent")
	}
	if _, ok := s.ListStringTables(ctx); ok {
		t.Fatal("tables should be absent")
	}
	if _, ok := s.ListEntityFields(ctx, 2); ok {
		t.Fatal("fields should be absent")
	}
	if _, ok := s.ListStringTableItems(ctx, "userinfo"); ok {
		t.Fatal("items should be absent")
	}
}

func TestSeekToEnd(t *testing.T) {
	s := openSample(t, WithSeekToEnd())
	if s.Tick() != 5 {
		t.Fatalf("tick = %d, want 5", s.Tick())
	}
}

func TestSeekToEndSkipsUnknownLength(t *testing.T) {
	p := &fakeParser{tick: -1, totalErr: recording.ErrTotalTicksUnknown}
	s, err := FromParser(context.Background(), p, WithSeekToEnd())
	if err != nil {
		t.Fatalf("from parser: %v", err)
	}
	if s.Tick() != -1 || p.runCalls != 0 {
		t.Fatalf("tick = %d, run calls = %d", s.Tick(), p.runCalls)
	}
}

func TestListings(t *testing.T) {
	s := openSample(t)
	ctx := context.Background()
	if err := s.RunToTick(ctx, 1); err != nil {
		t.Fatalf("run to 1: %v", err)
	}

	entities, ok := s.ListEntities(ctx)
	if !ok {
		t.Fatal("entities absent")
	}
	want := []EntityItem{
		{Index: 1, Name: "CCitadelPlayerController"},
		{Index: 2, Name: "CCitadelPlayerPawn"},
		{Index: 3, Name: "CCitadelPlayerPawn"},
	}
	if !reflect.DeepEqual(entities, want) {
		t.Fatalf("entities = %+v", entities)
	}

	baselines, ok := s.ListBaselineEntities(ctx)
	if !ok || !reflect.DeepEqual(baselines, []EntityItem{{Index: 2, Name: "CCitadelPlayerPawn"}}) {
		t.Fatalf("baselines = %+v, %v", baselines, ok)
	}

	fields, ok := s.ListEntityFields(ctx, 2)
	if !ok {
		t.Fatal("pawn fields absent")
	}
	var found bool
	for _, f := range fields {
		if f.JoinedNamedPath() == "m_vecItems.0.m_nId" {
			found = true
			if f.DeclaredType != "int32" || f.Value != "7" || f.RuntimeKind != "I64" {
				t.Fatalf("item record = %+v", f)
			}
		}
	}
	if !found {
		t.Fatalf("m_vecItems.0.m_nId missing from %+v", fields)
	}

	baseline, ok := s.ListBaselineEntityFields(ctx, 2)
	if !ok || len(baseline) != 1 || baseline[0].Value != "125" {
		t.Fatalf("baseline fields = %+v, %v", baseline, ok)
	}

	tables, ok := s.ListStringTables(ctx)
	if !ok || !reflect.DeepEqual(tables, []StringTableItem{{Name: "instancebaseline"}, {Name: "userinfo"}}) {
		t.Fatalf("tables = %+v, %v", tables, ok)
	}
	items, ok := s.ListStringTableItems(ctx, "userinfo")
	if !ok || len(items) != 1 || items[0].DisplayString() != "alice" || items[0].HexUserData() != "01 02" {
		t.Fatalf("items = %+v, %v", items, ok)
	}
	if _, ok := s.ListStringTableItems(ctx, "UserInfo"); ok {
		t.Fatal("table lookup must be exact")
	}
}

func TestUnknownEntityVersusEmptyEntity(t *testing.T) {
	s := openSample(t)
	ctx := context.Background()
	if err := s.RunToTick(ctx, 1); err != nil {
		t.Fatalf("run to 1: %v", err)
	}

	if _, ok := s.ListEntityFields(ctx, 99); ok {
		t.Fatal("unknown entity should be absent")
	}
	fields, ok := s.ListEntityFields(ctx, 3)
	if !ok {
		t.Fatal("empty entity should be present")
	}
	if fields == nil || len(fields) != 0 {
		t.Fatalf("fields = %#v, want empty", fields)
	}
	if _, ok := s.ListBaselineEntityFields(ctx, 3); ok {
		t.Fatal("entity 3 has no baseline")
	}
}

func TestRunToTickCurrentIsNoop(t *testing.T) {
	p := &fakeParser{tick: 4, runErr: errors.New("must not be called")}
	s, err := FromParser(context.Background(), p)
	if err != nil {
		t.Fatalf("from parser: %v", err)
	}
	if err := s.RunToTick(context.Background(), 4); err != nil {
		t.Fatalf("run to current tick: %v", err)
	}
	if p.runCalls != 0 {
		t.Fatalf("parser called %d times", p.runCalls)
	}
}

func TestRunToTickUnreachable(t *testing.T) {
	s := openSample(t)
	ctx := context.Background()
	if err := s.RunToTick(ctx, 1); err != nil {
		t.Fatalf("run to 1: %v", err)
	}
	before, _ := s.ListEntityFields(ctx, 2)

	err := s.RunToTick(ctx, 50)
	if !errors.Is(err, apperrors.New(apperrors.CodeTickUnreachable, "")) {
		t.Fatalf("err = %v, want TICK_UNREACHABLE", err)
	}
	if !errors.Is(err, recording.ErrTickPastEnd) {
		t.Fatalf("err = %v, want wrapped ErrTickPastEnd", err)
	}
	if got := apperrors.UserMessage(err, "en-US"); got != "Tick 50 cannot be reached from tick 1" {
		t.Fatalf("user message = %q", got)
	}
	if s.Tick() != 1 {
		t.Fatalf("tick = %d after failure", s.Tick())
	}
	after, _ := s.ListEntityFields(ctx, 2)
	if !reflect.DeepEqual(before, after) {
		t.Fatal("state changed after failed seek")
	}
}

func TestTotalTicksUnknown(t *testing.T) {
	s, err := FromParser(context.Background(), &fakeParser{totalErr: errors.New("stream has no index")})
	if err != nil {
		t.Fatalf("from parser: %v", err)
	}
	if _, err := s.TotalTicks(context.Background()); !errors.Is(err, apperrors.New(apperrors.CodeTotalTicksUnknown, "")) {
		t.Fatalf("err = %v, want TOTAL_TICKS_UNKNOWN", err)
	}
}

func TestSnapshotsAreIdempotent(t *testing.T) {
	s := openSample(t, WithSeekToEnd())
	ctx := context.Background()
	first, _ := s.ListEntityFields(ctx, 2)
	second, _ := s.ListEntityFields(ctx, 2)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("snapshots differ:\n%+v\n%+v", first, second)
	}
}

func TestHandleHelpers(t *testing.T) {
	s := openSample(t)
	if s.IsHandleValid(0xFFFFFFFF) {
		t.Fatal("sentinel should be invalid")
	}
	if !s.IsHandleValid(0x8001) || s.HandleToIndex(0x8001) != 1 {
		t.Fatal("0x8001 should be a valid handle to entity 1")
	}
}

func TestCloseReleasesParser(t *testing.T) {
	p := &fakeParser{}
	s, err := FromParser(context.Background(), p)
	if err != nil {
		t.Fatalf("from parser: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if p.closeCalls != 1 {
		t.Fatalf("close calls = %d", p.closeCalls)
	}
}

func TestConcurrentQueriesAndSeeks(t *testing.T) {
	s := openSample(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.RunToTick(ctx, int32(i%6))
			s.ListEntities(ctx)
			s.ListEntityFields(ctx, 2)
		}(i)
	}
	wg.Wait()
}

func TestSpansRecordFailures(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	s := openSample(t, WithTracerProvider(tp))

	_ = s.RunToTick(context.Background(), 99)
	s.ListEntities(context.Background())

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}
	if spans[0].Name() != "session.RunToTick" || spans[0].Status().Code != codes.Error {
		t.Fatalf("run span = %s %v", spans[0].Name(), spans[0].Status())
	}
	if spans[1].Name() != "session.ListEntities" {
		t.Fatalf("list span = %s", spans[1].Name())
	}
}

func TestFilteredListings(t *testing.T) {
	s := openSample(t)
	ctx := context.Background()
	if err := s.RunToTick(ctx, 1); err != nil {
		t.Fatalf("run to 1: %v", err)
	}

	entities, ok, err := s.ListEntitiesFiltered(ctx, Query{Filter: `index >= 2`}, false)
	if err != nil || !ok || len(entities) != 2 {
		t.Fatalf("entities = %+v, %v, %v", entities, ok, err)
	}
	entities, _, err = s.ListEntitiesFiltered(ctx, Query{Text: filterText("controller")}, false)
	if err != nil || len(entities) != 1 || entities[0].Index != 1 {
		t.Fatalf("text filtered = %+v, %v", entities, err)
	}

	fields, ok, err := s.ListEntityFieldsFiltered(ctx, FieldQuery{Index: 2})
	if err != nil || !ok {
		t.Fatalf("fields: %v, %v", ok, err)
	}
	var paths [][]byte
	for _, f := range fields {
		paths = append(paths, f.RawPath)
	}
	if want := [][]byte{{0}, {1, 0, 0}, {2}, {3}}; !reflect.DeepEqual(paths, want) {
		t.Fatalf("sorted paths = %v, want %v", paths, want)
	}

	fields, _, err = s.ListEntityFieldsFiltered(ctx, FieldQuery{Index: 2, Query: Query{Filter: `type = "CHandle*"`}})
	if err != nil || len(fields) != 1 {
		t.Fatalf("handle fields = %+v, %v", fields, err)
	}
	if idx, linked, valid := fields[0].HandleLink(); !linked || !valid || idx != 1 {
		t.Fatalf("handle link = %d %v %v", idx, linked, valid)
	}

	if _, ok, err := s.ListEntityFieldsFiltered(ctx, FieldQuery{Index: 42}); ok || err != nil {
		t.Fatalf("missing entity = %v, %v", ok, err)
	}
}

func TestFilteredListingsRejectBadFilters(t *testing.T) {
	s := openSample(t, WithSeekToEnd())
	ctx := context.Background()
	invalid := apperrors.New(apperrors.CodeInvalidFilter, "")

	if _, _, err := s.ListEntitiesFiltered(ctx, Query{Filter: `index >`}, false); !errors.Is(err, invalid) {
		t.Fatalf("err = %v, want INVALID_FILTER", err)
	}
	_, _, err := s.ListEntityFieldsFiltered(ctx, FieldQuery{Index: 2, Query: Query{Text: filterRegex("m_(")}})
	if !errors.Is(err, invalid) {
		t.Fatalf("err = %v, want INVALID_FILTER", err)
	}
}
