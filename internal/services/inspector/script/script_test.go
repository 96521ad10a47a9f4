package script

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/louisbranch/demoscope/internal/services/inspector/recording"
	"github.com/louisbranch/demoscope/internal/services/inspector/session"
)

func openSample(t *testing.T) *session.Session {
	t.Helper()
	data, err := os.ReadFile("../recording/testdata/sample.json")
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	sess, err := session.FromBytes(context.Background(), data, recording.Open)
	if err != nil {
		t.Fatalf("open sample: %v", err)
	}
	return sess
}

func TestRunStringBindings(t *testing.T) {
	src := `
assert_eq = demo.assert_eq
assert_eq(demo.tick(), -1, "start tick")
assert_eq(demo.entities(), nil, "entities before first tick")
assert_eq(demo.tables(), nil, "tables before first tick")
assert_eq(demo.total_ticks(), 5, "total ticks")

demo.run_to_tick(1)
assert_eq(demo.tick(), 1, "tick after seek")

local es = demo.entities()
assert_eq(#es, 3, "entity count")
assert_eq(es[1].index, 1, "first index")
assert_eq(es[2].class, "CCitadelPlayerPawn", "pawn class")
assert_eq(#demo.baseline_entities(), 1, "baseline count")

assert_eq(demo.fields(99), nil, "unknown entity")
assert_eq(#demo.fields(3), 0, "entity without fields")

local found = false
for _, f in ipairs(demo.fields(2)) do
  if f.path == "1/0/0" then
    found = true
    assert_eq(f.name, "m_vecItems.0.m_nId", "joined name")
    assert_eq(f.type, "int32", "declared type")
    assert_eq(f.kind, "I64", "runtime kind")
    assert_eq(f.value, "7", "value")
    assert_eq(#f.raw, 3, "raw depth")
  end
  if f.name == "m_hOwnerEntity" then
    assert_eq(f.link, 1, "handle link")
  end
end
assert_eq(found, true, "nested field present")
assert_eq(demo.baseline_fields(2)[1].value, "125", "baseline health")

local tables = demo.tables()
assert_eq(tables[2], "userinfo", "table order")
local items = demo.items("userinfo")
assert_eq(items[1].index, 0, "item index")
assert_eq(items[1].string, "alice", "item string")
assert_eq(items[1].user_data, "01 02", "item user data")
assert_eq(demo.items("missing"), nil, "missing table")

assert_eq(demo.handle_valid(4294967295), false, "invalid handle")
assert_eq(demo.handle_index(32773), 5, "handle index")
demo.print("done", demo.tick())
`
	var out bytes.Buffer
	if err := RunString(context.Background(), openSample(t), "bindings", src, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "done\t1\n" {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunFile(t *testing.T) {
	var out bytes.Buffer
	if err := RunFile(context.Background(), openSample(t), "testdata/walk.lua", &out); err != nil {
		t.Fatalf("run file: %v", err)
	}
	want := "1\tCCitadelPlayerController\n" +
		"2\tCCitadelPlayerPawn\n" +
		"m_hOwnerEntity\t->\t1\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "syntax", src: "demo.tick(", want: "load script"},
		{name: "assertion", src: `demo.assert_eq(1, 2, "numbers")`, want: "numbers: expected 2, got 1"},
		{name: "unreachable tick", src: "demo.run_to_tick(100)", want: "run to tick 100"},
		{name: "bad handle", src: "demo.handle_index(-1)", want: "handle out of uint32 range"},
		{name: "wide tick", src: "demo.run_to_tick(4294967296)", want: "tick out of int32 range"},
		{name: "negative wide tick", src: "demo.run_to_tick(-4294967295)", want: "tick out of int32 range"},
		{name: "wide entity", src: "demo.fields(4294967297)", want: "entity index out of int32 range"},
		{name: "wide baseline entity", src: "demo.baseline_fields(4294967298)", want: "entity index out of int32 range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RunString(context.Background(), openSample(t), tt.name, tt.src, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestRunWideArgumentsLeaveSessionUntouched(t *testing.T) {
	src := `
demo.run_to_tick(1)
local ok = pcall(demo.run_to_tick, 4294967296)
demo.assert_eq(ok, false, "wide seek accepted")
demo.assert_eq(demo.tick(), 1, "tick after rejected seek")
ok = pcall(demo.fields, 4294967298)
demo.assert_eq(ok, false, "wide index accepted")
demo.assert_eq(#demo.fields(2) > 0, true, "entity 2 still listed")
`
	if err := RunString(context.Background(), openSample(t), "wide", src, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
}

const sparseRecording = `{
  "version": 1,
  "seekable": true,
  "nodes": [],
  "serializers": [],
  "frames": [
    {"tick": 0, "ops": [
      {"op": "table_create", "table": "userinfo"},
      {"op": "table_set", "table": "userinfo", "item": 2, "string": "Ym9i"},
      {"op": "table_set", "table": "userinfo", "item": 5, "user_data": "/w=="}
    ]}
  ]
}`

func TestRunItemsOmitAbsentPayloads(t *testing.T) {
	sess, err := session.FromBytes(context.Background(), []byte(sparseRecording), recording.Open)
	if err != nil {
		t.Fatalf("open sparse recording: %v", err)
	}
	src := `
demo.run_to_tick(0)
local items = demo.items("userinfo")
demo.assert_eq(#items, 2, "populated slots")
demo.assert_eq(items[1].index, 2, "first slot index")
demo.assert_eq(items[1].string, "bob", "first string")
demo.assert_eq(items[1].user_data, nil, "absent user data")
demo.assert_eq(items[2].index, 5, "second slot index")
demo.assert_eq(items[2].string, nil, "absent string")
demo.assert_eq(items[2].user_data, "ff", "second user data")
`
	if err := RunString(context.Background(), sess, "sparse", src, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := RunString(ctx, openSample(t), "canceled", "demo.tick()", nil); err == nil {
		t.Fatal("expected canceled context error")
	}
}

func TestRunRequiresSession(t *testing.T) {
	if err := RunString(context.Background(), nil, "nil", "", nil); err == nil {
		t.Fatal("expected session error")
	}
}
