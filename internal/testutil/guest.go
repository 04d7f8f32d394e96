package testutil

// Fixed addresses used by StaticGuest.
const (
	GuestInputAt  = 1024
	GuestResultAt = 4096
	GuestKeyAt    = 8192
)

// StaticGuest builds a guest whose run export returns result, a JSON
// RunResult, unchanged. allocate always returns GuestInputAt. When cacheKey is
// set, run first calls cache_get with it and drops the size.
func StaticGuest(result, cacheKey string) []byte {
	m := NewModule()
	var cacheGet uint32
	if cacheKey != "" {
		cacheGet = m.Import("env", "cache_get", Sig(Params(I32, I32), I32))
	}

	m.Func("allocate", Sig(Params(I32), I32), I32Const(GuestInputAt))
	m.Func("deallocate", Sig(Params(I32, I32)))

	var body [][]byte
	if cacheKey != "" {
		body = append(body,
			I32Const(GuestKeyAt),
			I32Const(int32(len(cacheKey))), //nolint:gosec // G115: short test key
			Call(cacheGet),
			Drop(),
		)
		m.Data(GuestKeyAt, []byte(cacheKey))
	}
	body = append(body, I64Const(PackedPtrLen(GuestResultAt, uint32(len(result))))) //nolint:gosec // G115: short result
	m.Func("run", Sig(Params(I32, I32), I64), body...)

	m.Memory(1)
	m.Data(GuestResultAt, []byte(result))
	return m.Bytes()
}
