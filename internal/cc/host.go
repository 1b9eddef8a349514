package cc

import "sort"

// hostFn describes one callable the runtime environment exposes to compiled
// programs, grounded on original_source/src/cc.c's host function table:
// name, packed calling signature (etype: float mask/count/param count),
// whether it returns a float, and whether it is a variadic printf-style
// call that needs special argument handling in the code generator and VM.
type hostFn struct {
	Name     string
	EType    int
	RetFloat bool
	Variadic bool // printf/sprintf-style: last fixed param is a format string
}

// HostDirectory is a sorted catalog of host functions, looked up by binary
// search the way the original compiler scans its fixed host-function table.
type HostDirectory struct {
	fns []hostFn
}

// NewHostDirectory builds the directory from the standard library exposed
// to compiled programs (stdio, string, math, and the GPIO/PWM/clock/IRQ
// groups named in hostapi), plus any extra names the embedding environment
// adds (the extra slice).
func NewHostDirectory(extra []hostFn) *HostDirectory {
	fns := append([]hostFn{}, builtinHostFns...)
	fns = append(fns, extra...)
	sort.Slice(fns, func(i, j int) bool { return fns[i].Name < fns[j].Name })
	return &HostDirectory{fns: fns}
}

// Lookup returns the host function descriptor for name, or ok=false.
func (h *HostDirectory) Lookup(name string) (hostFn, bool) {
	fn, _, ok := h.LookupIndexed(name)
	return fn, ok
}

// LookupIndexed additionally returns name's stable index into the sorted
// directory, used directly as the SYSC immediate's table index.
func (h *HostDirectory) LookupIndexed(name string) (hostFn, int, bool) {
	i := sort.Search(len(h.fns), func(i int) bool { return h.fns[i].Name >= name })
	if i < len(h.fns) && h.fns[i].Name == name {
		return h.fns[i], i, true
	}
	return hostFn{}, 0, false
}

// ByIndex returns the host function at a SYSC table index (panics if out
// of range — codegen never emits an out-of-range index).
func (h *HostDirectory) ByIndex(i int) hostFn { return h.fns[i] }

// All returns every registered host function, in table (sorted) order.
func (h *HostDirectory) All() []hostFn { return h.fns }

// builtinHostFns mirrors the stdio/string/math surface original_source's
// cc.c wires as syscalls: printf/sprintf are variadic; strlen/memcpy/etc
// take a fixed integer-only signature; a handful of math functions return
// float.
var builtinHostFns = []hostFn{
	{Name: "printf", Variadic: true, EType: EncodeFuncEType(0, 0, 1)},
	{Name: "sprintf", Variadic: true, EType: EncodeFuncEType(0, 0, 2)},
	{Name: "open", EType: EncodeFuncEType(0, 0, 2)},
	{Name: "close", EType: EncodeFuncEType(0, 0, 1)},
	{Name: "read", EType: EncodeFuncEType(0, 0, 3)},
	{Name: "write", EType: EncodeFuncEType(0, 0, 3)},
	{Name: "malloc", EType: EncodeFuncEType(0, 0, 1)},
	{Name: "free", EType: EncodeFuncEType(0, 0, 1)},
	{Name: "memset", EType: EncodeFuncEType(0, 0, 3)},
	{Name: "memcmp", EType: EncodeFuncEType(0, 0, 3)},
	{Name: "memcpy", EType: EncodeFuncEType(0, 0, 3)},
	{Name: "strlen", EType: EncodeFuncEType(0, 0, 1)},
	{Name: "exit", EType: EncodeFuncEType(0, 0, 1)},
	{Name: "putchar", EType: EncodeFuncEType(0, 0, 1)},
	{Name: "getchar", EType: EncodeFuncEType(0, 0, 0)},
	{Name: "sin", RetFloat: true, EType: EncodeFuncEType(1, 1, 1)},
	{Name: "cos", RetFloat: true, EType: EncodeFuncEType(1, 1, 1)},
	{Name: "sqrt", RetFloat: true, EType: EncodeFuncEType(1, 1, 1)},
	{Name: "gpio_init", EType: EncodeFuncEType(0, 0, 1)},
	{Name: "gpio_set_dir", EType: EncodeFuncEType(0, 0, 2)},
	{Name: "gpio_put", EType: EncodeFuncEType(0, 0, 2)},
	{Name: "gpio_get", EType: EncodeFuncEType(0, 0, 1)},
	{Name: "pwm_set_freq", EType: EncodeFuncEType(0, 0, 2)},
	{Name: "pwm_set_duty", EType: EncodeFuncEType(0, 0, 2)},
	{Name: "clock_ms", EType: EncodeFuncEType(0, 0, 0)},
	{Name: "sleep_ms", EType: EncodeFuncEType(0, 0, 1)},
	{Name: "irq_set_enabled", EType: EncodeFuncEType(0, 0, 2)},
}
