// Package script runs Lua inspection scripts against an open session.
//
// Scripts see a global table named demo:
//
//	demo.tick()                  current tick
//	demo.total_ticks()           last tick; raises when unknown
//	demo.run_to_tick(n)          seek; raises when unreachable
//	demo.entities()              {{index=, class=}, ...} or nil
//	demo.baseline_entities()     same, for baselines
//	demo.fields(i)               {{path=, raw=, name=, type=, kind=, value=, link=}, ...} or nil
//	demo.baseline_fields(i)      same, for the baseline of i
//	demo.tables()                {"name", ...} or nil
//	demo.items(name)             {{index=, string=, user_data=}, ...} or nil; string and user_data only when set
//	demo.handle_valid(h)         boolean
//	demo.handle_index(h)         entity index
//	demo.print(...)              tab separated line on the output writer
//	demo.assert_eq(a, b, msg)    raises when a ~= b
package script

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/louisbranch/demoscope/internal/services/inspector/session"
	"github.com/louisbranch/demoscope/internal/services/inspector/snapshot"
)

const globalName = "demo"

// RunFile executes the script at path.
func RunFile(ctx context.Context, sess *session.Session, path string, out io.Writer) error {
	return run(ctx, sess, out, path, func(l *lua.State) error {
		return lua.LoadFile(l, path, "")
	})
}

// RunString executes source. name labels the chunk in error messages.
func RunString(ctx context.Context, sess *session.Session, name, source string, out io.Writer) error {
	return run(ctx, sess, out, name, func(l *lua.State) error {
		return lua.LoadBuffer(l, source, "="+name, "")
	})
}

func run(ctx context.Context, sess *session.Session, out io.Writer, name string, load func(*lua.State) error) (err error) {
	if sess == nil {
		return fmt.Errorf("session is required")
	}
	if out == nil {
		out = io.Discard
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script %s panicked: %v", name, r)
		}
	}()

	state := lua.NewState()
	lua.OpenLibraries(state)
	b := &bindings{ctx: ctx, sess: sess, out: out}
	b.register(state)

	if err := load(state); err != nil {
		return fmt.Errorf("load script %s: %w", name, err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("run script %s: %w", name, err)
	}
	return nil
}

type bindings struct {
	ctx  context.Context
	sess *session.Session
	out  io.Writer
}

func (b *bindings) register(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, []lua.RegistryFunction{
		{Name: "tick", Function: b.tick},
		{Name: "total_ticks", Function: b.totalTicks},
		{Name: "run_to_tick", Function: b.runToTick},
		{Name: "entities", Function: b.entities(false)},
		{Name: "baseline_entities", Function: b.entities(true)},
		{Name: "fields", Function: b.fields(false)},
		{Name: "baseline_fields", Function: b.fields(true)},
		{Name: "tables", Function: b.tables},
		{Name: "items", Function: b.items},
		{Name: "handle_valid", Function: b.handleValid},
		{Name: "handle_index", Function: b.handleIndex},
		{Name: "print", Function: b.print},
		{Name: "assert_eq", Function: assertEq},
	}, 0)
	state.SetGlobal(globalName)
}

func (b *bindings) checkContext(state *lua.State) {
	if err := b.ctx.Err(); err != nil {
		lua.Errorf(state, "%s", err.Error())
	}
}

func (b *bindings) tick(state *lua.State) int {
	state.PushInteger(int(b.sess.Tick()))
	return 1
}

func (b *bindings) totalTicks(state *lua.State) int {
	b.checkContext(state)
	total, err := b.sess.TotalTicks(b.ctx)
	if err != nil {
		lua.Errorf(state, "%s", err.Error())
		return 0
	}
	state.PushInteger(int(total))
	return 1
}

func (b *bindings) runToTick(state *lua.State) int {
	b.checkContext(state)
	target := checkInt32(state, 1, "tick")
	if err := b.sess.RunToTick(b.ctx, target); err != nil {
		lua.Errorf(state, "%s", err.Error())
	}
	return 0
}

func (b *bindings) entities(baseline bool) lua.Function {
	return func(state *lua.State) int {
		b.checkContext(state)
		list := b.sess.ListEntities
		if baseline {
			list = b.sess.ListBaselineEntities
		}
		items, ok := list(b.ctx)
		if !ok {
			state.PushNil()
			return 1
		}
		state.CreateTable(len(items), 0)
		for i, it := range items {
			state.CreateTable(0, 2)
			state.PushInteger(int(it.Index))
			state.SetField(-2, "index")
			state.PushString(it.Name)
			state.SetField(-2, "class")
			state.RawSetInt(-2, i+1)
		}
		return 1
	}
}

func (b *bindings) fields(baseline bool) lua.Function {
	return func(state *lua.State) int {
		b.checkContext(state)
		index := checkInt32(state, 1, "entity index")
		list := b.sess.ListEntityFields
		if baseline {
			list = b.sess.ListBaselineEntityFields
		}
		records, ok := list(b.ctx, index)
		if !ok {
			state.PushNil()
			return 1
		}
		state.CreateTable(len(records), 0)
		for i, rec := range records {
			pushField(state, rec)
			state.RawSetInt(-2, i+1)
		}
		return 1
	}
}

func pushField(state *lua.State, rec snapshot.FieldRecord) {
	state.CreateTable(0, 7)
	state.CreateTable(len(rec.RawPath), 0)
	for i, seg := range rec.RawPath {
		state.PushInteger(int(seg))
		state.RawSetInt(-2, i+1)
	}
	state.SetField(-2, "raw")
	state.PushString(rec.SlashPath())
	state.SetField(-2, "path")
	state.PushString(rec.JoinedNamedPath())
	state.SetField(-2, "name")
	state.PushString(rec.DeclaredType)
	state.SetField(-2, "type")
	state.PushString(rec.RuntimeKind)
	state.SetField(-2, "kind")
	state.PushString(rec.Value)
	state.SetField(-2, "value")
	if index, _, valid := rec.HandleLink(); valid {
		state.PushInteger(int(index))
		state.SetField(-2, "link")
	}
}

func (b *bindings) tables(state *lua.State) int {
	b.checkContext(state)
	items, ok := b.sess.ListStringTables(b.ctx)
	if !ok {
		state.PushNil()
		return 1
	}
	state.CreateTable(len(items), 0)
	for i, it := range items {
		state.PushString(it.Name)
		state.RawSetInt(-2, i+1)
	}
	return 1
}

func (b *bindings) items(state *lua.State) int {
	b.checkContext(state)
	name := lua.CheckString(state, 1)
	records, ok := b.sess.ListStringTableItems(b.ctx, name)
	if !ok {
		state.PushNil()
		return 1
	}
	state.CreateTable(len(records), 0)
	for i, rec := range records {
		state.CreateTable(0, 3)
		state.PushInteger(rec.Index)
		state.SetField(-2, "index")
		if rec.String != nil {
			state.PushString(string(rec.String))
			state.SetField(-2, "string")
		}
		if rec.UserData != nil {
			state.PushString(rec.HexUserData())
			state.SetField(-2, "user_data")
		}
		state.RawSetInt(-2, i+1)
	}
	return 1
}

func (b *bindings) handleValid(state *lua.State) int {
	state.PushBoolean(b.sess.IsHandleValid(checkHandle(state, 1)))
	return 1
}

func (b *bindings) handleIndex(state *lua.State) int {
	state.PushInteger(int(b.sess.HandleToIndex(checkHandle(state, 1))))
	return 1
}

func checkHandle(state *lua.State, index int) uint32 {
	h := lua.CheckInteger(state, index)
	if h < 0 || h > 0xFFFFFFFF {
		lua.ArgumentError(state, index, "handle out of uint32 range")
	}
	return uint32(h)
}

func checkInt32(state *lua.State, index int, what string) int32 {
	n := lua.CheckInteger(state, index)
	if n < math.MinInt32 || n > math.MaxInt32 {
		lua.ArgumentError(state, index, what+" out of int32 range")
	}
	return int32(n)
}

func (b *bindings) print(state *lua.State) int {
	n := state.Top()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		s, _ := lua.ToStringMeta(state, i)
		state.Pop(1)
		parts = append(parts, s)
	}
	if _, err := fmt.Fprintln(b.out, strings.Join(parts, "\t")); err != nil {
		lua.Errorf(state, "print: %s", err.Error())
	}
	return 0
}

func assertEq(state *lua.State) int {
	if state.RawEqual(1, 2) || (state.IsNil(1) && state.IsNil(2)) {
		return 0
	}
	msg := lua.OptString(state, 3, "assertion failed")
	want, _ := lua.ToStringMeta(state, 2)
	state.Pop(1)
	got, _ := lua.ToStringMeta(state, 1)
	state.Pop(1)
	lua.Errorf(state, "%s: expected %s, got %s", msg, want, got)
	return 0
}
