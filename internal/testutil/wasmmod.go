// Package testutil builds small WebAssembly modules for host-side tests, so
// the runtime adapters can be exercised against real guest instances without
// compiling a guest.
//
//	m := testutil.NewModule()
//	m.Forward("env", "cache_get", testutil.Sig(testutil.Params(testutil.I32, testutil.I32), testutil.I32))
//	m.Memory(1)
//	guest, err := rt.Instantiate(ctx, m.Bytes())
package testutil

import (
	"bytes"
	"fmt"
)

// ValType is a WebAssembly value type.
type ValType byte

// Value types used by the host protocol.
const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
)

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Params is shorthand for a parameter list.
func Params(p ...ValType) []ValType { return p }

// Sig builds a signature with at most one result.
func Sig(params []ValType, results ...ValType) FuncType {
	return FuncType{Params: params, Results: results}
}

type importEntry struct {
	module, name string
	typeIdx      uint32
}

type funcEntry struct {
	typeIdx uint32
	body    []byte
}

type exportEntry struct {
	name string
	kind byte
	idx  uint32
}

type dataEntry struct {
	offset uint32
	data   []byte
}

// Module accumulates the sections of a module. Imports must be declared
// before any function is defined.
type Module struct {
	types    []FuncType
	imports  []importEntry
	funcs    []funcEntry
	exports  []exportEntry
	data     []dataEntry
	forwards []forward
	pages    uint32
	memory   bool
}

type forward struct {
	name   string
	ft     FuncType
	target uint32
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{}
}

// Import declares a function import and returns its function index.
func (m *Module) Import(module, name string, ft FuncType) uint32 {
	if len(m.funcs) > 0 {
		panic("testutil: imports must precede function definitions")
	}
	m.imports = append(m.imports, importEntry{module: module, name: name, typeIdx: m.addType(ft)})
	return uint32(len(m.imports) - 1) //nolint:gosec // G115: test modules are tiny
}

// Func defines a function with body (without the trailing end opcode) and
// exports it as name when name is non-empty. It returns the function index.
func (m *Module) Func(name string, ft FuncType, body ...[]byte) uint32 {
	m.funcs = append(m.funcs, funcEntry{typeIdx: m.addType(ft), body: bytes.Join(body, nil)})
	idx := uint32(len(m.imports) + len(m.funcs) - 1) //nolint:gosec // G115: test modules are tiny
	if name != "" {
		m.exports = append(m.exports, exportEntry{name: name, kind: 0x00, idx: idx})
	}
	return idx
}

// Forward imports module.name and exports a function of the same name and
// signature that passes its parameters straight through to the import.
// Like Import, it must be called before Func.
func (m *Module) Forward(module, name string, ft FuncType) {
	m.forwards = append(m.forwards, forward{name: name, ft: ft, target: m.Import(module, name, ft)})
}

// Memory declares a memory of pages 64KiB pages, exported as "memory".
func (m *Module) Memory(pages uint32) {
	m.memory = true
	m.pages = pages
}

// Data places b at offset in memory when the module is instantiated.
func (m *Module) Data(offset uint32, b []byte) {
	m.data = append(m.data, dataEntry{offset: offset, data: b})
}

func (m *Module) addType(ft FuncType) uint32 {
	m.types = append(m.types, ft)
	return uint32(len(m.types) - 1) //nolint:gosec // G115: test modules are tiny
}

// Bytes encodes the module in the binary format.
func (m *Module) Bytes() []byte {
	for _, f := range m.forwards {
		body := make([][]byte, 0, len(f.ft.Params)+1)
		for i := range f.ft.Params {
			body = append(body, LocalGet(uint32(i))) //nolint:gosec // G115: few params
		}
		body = append(body, Call(f.target))
		m.Func(f.name, f.ft, body...)
	}
	m.forwards = nil

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	out = appendSection(out, 1, vec(len(m.types), func(i int) []byte {
		ft := m.types[i]
		b := []byte{0x60}
		b = append(b, valTypes(ft.Params)...)
		return append(b, valTypes(ft.Results)...)
	}))

	if len(m.imports) > 0 {
		out = appendSection(out, 2, vec(len(m.imports), func(i int) []byte {
			imp := m.imports[i]
			b := append(name(imp.module), name(imp.name)...)
			b = append(b, 0x00)
			return append(b, uleb(uint64(imp.typeIdx))...)
		}))
	}

	if len(m.funcs) > 0 {
		out = appendSection(out, 3, vec(len(m.funcs), func(i int) []byte {
			return uleb(uint64(m.funcs[i].typeIdx))
		}))
	}

	exports := m.exports
	if m.memory {
		out = appendSection(out, 5, vec(1, func(int) []byte {
			return append([]byte{0x00}, uleb(uint64(m.pages))...)
		}))
		exports = append(exports, exportEntry{name: "memory", kind: 0x02, idx: 0})
	}

	if len(exports) > 0 {
		out = appendSection(out, 7, vec(len(exports), func(i int) []byte {
			e := exports[i]
			b := append(name(e.name), e.kind)
			return append(b, uleb(uint64(e.idx))...)
		}))
	}

	if len(m.funcs) > 0 {
		out = appendSection(out, 10, vec(len(m.funcs), func(i int) []byte {
			code := append([]byte{0x00}, m.funcs[i].body...) // no locals
			code = append(code, 0x0b)
			return append(uleb(uint64(len(code))), code...)
		}))
	}

	if len(m.data) > 0 {
		out = appendSection(out, 11, vec(len(m.data), func(i int) []byte {
			d := m.data[i]
			b := []byte{0x00}
			b = append(b, I32Const(int32(d.offset))...) //nolint:gosec // G115: small offsets
			b = append(b, 0x0b)
			b = append(b, uleb(uint64(len(d.data)))...)
			return append(b, d.data...)
		}))
	}

	return out
}

// LocalGet returns local.get idx.
func LocalGet(idx uint32) []byte {
	return append([]byte{0x20}, uleb(uint64(idx))...)
}

// Call returns call idx.
func Call(idx uint32) []byte {
	return append([]byte{0x10}, uleb(uint64(idx))...)
}

// I32Const returns i32.const v.
func I32Const(v int32) []byte {
	return append([]byte{0x41}, sleb(int64(v))...)
}

// I64Const returns i64.const v.
func I64Const(v int64) []byte {
	return append([]byte{0x42}, sleb(v)...)
}

// Drop returns drop.
func Drop() []byte {
	return []byte{0x1a}
}

// PackedPtrLen is the i64 a guest returns for a (ptr, len) pair.
func PackedPtrLen(ptr, length uint32) int64 {
	return int64(uint64(ptr)<<32 | uint64(length)) //nolint:gosec // G115: ptr < 2^31 in tests
}

func appendSection(out []byte, id byte, content []byte) []byte {
	out = append(out, id)
	out = append(out, uleb(uint64(len(content)))...)
	return append(out, content...)
}

func vec(n int, item func(i int) []byte) []byte {
	b := uleb(uint64(n)) //nolint:gosec // G115: n >= 0
	for i := 0; i < n; i++ {
		b = append(b, item(i)...)
	}
	return b
}

func valTypes(ts []ValType) []byte {
	b := uleb(uint64(len(ts)))
	for _, t := range ts {
		b = append(b, byte(t))
	}
	return b
}

func name(s string) []byte {
	return append(uleb(uint64(len(s))), s...)
}

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

// String describes the module layout, for test failure messages.
func (m *Module) String() string {
	return fmt.Sprintf("module{types:%d imports:%d funcs:%d exports:%d}", len(m.types), len(m.imports), len(m.funcs), len(m.exports))
}
