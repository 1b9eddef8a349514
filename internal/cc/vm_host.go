package cc

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// dispatchSyscall handles a host call: imm packs the host directory
// index (high bits) and the call-site argument count (low byte);
// arguments sit on top of the value stack at fixed positions (pos 0
// nearest sp) in the layout genCall built. Non-variadic positions are
// exactly 4 bytes (int or float32 bits); a variadic float argument was
// promoted to float64 and occupies 8 bytes.
func (vm *VM) dispatchSyscall(imm int32) error {
	idx := int(uint32(imm) >> 8)
	argc := int(imm & 0xff)
	fn := vm.host.ByIndex(idx)

	a := &hostArgs{vm: vm, argc: argc}
	var result int32
	var err error

	switch fn.Name {
	case "printf":
		result, err = vm.doPrintf(a, vm.env.Stdout)
	case "sprintf":
		result, err = vm.doSprintf(a)
	case "open":
		result, err = vm.doOpen(a)
	case "close":
		result, err = vm.doClose(a)
	case "read":
		result, err = vm.doRead(a)
	case "write":
		result, err = vm.doWrite(a)
	case "malloc":
		result = int32(vm.malloc(int(a.int32At(0))))
	case "free":
		vm.free(int(a.int32At(0)))
	case "memset":
		result = vm.doMemset(a)
	case "memcmp":
		result = vm.doMemcmp(a)
	case "memcpy":
		result = vm.doMemcpy(a)
	case "strlen":
		result = int32(vm.cstrLen(int(a.int32At(0))))
	case "exit":
		vm.exited = true
		vm.exitCode = int(a.int32At(0))
	case "putchar":
		if vm.env.Stdout != nil {
			vm.env.Stdout.Write([]byte{byte(a.int32At(0))})
		}
		result = a.int32At(0)
	case "getchar":
		result = vm.doGetchar()
	case "sin":
		vm.setAccFloat(float32(math.Sin(float64(a.floatAt(0)))))
		return nil
	case "cos":
		vm.setAccFloat(float32(math.Cos(float64(a.floatAt(0)))))
		return nil
	case "sqrt":
		vm.setAccFloat(float32(math.Sqrt(float64(a.floatAt(0)))))
		return nil
	case "gpio_init":
		vm.env.Periph.GPIOInit(int(a.int32At(0)))
	case "gpio_set_dir":
		vm.env.Periph.GPIOSetDir(int(a.int32At(0)), int(a.int32At(1)))
	case "gpio_put":
		vm.env.Periph.GPIOPut(int(a.int32At(0)), int(a.int32At(1)))
	case "gpio_get":
		result = int32(vm.env.Periph.GPIOGet(int(a.int32At(0))))
	case "pwm_set_freq":
		vm.env.Periph.PWMSetFreq(int(a.int32At(0)), int(a.int32At(1)))
	case "pwm_set_duty":
		vm.env.Periph.PWMSetDuty(int(a.int32At(0)), int(a.int32At(1)))
	case "clock_ms":
		result = int32(vm.env.Periph.ClockMs())
	case "sleep_ms":
		vm.env.Periph.SleepMs(int(a.int32At(0)))
	case "irq_set_enabled":
		vm.env.Periph.IRQSetEnabled(int(a.int32At(0)), int(a.int32At(1)))
	default:
		return &RuntimeError{Message: "unbound host function: " + fn.Name}
	}
	if err != nil {
		return &RuntimeError{Message: err.Error()}
	}
	vm.acc = result
	return nil
}

// hostArgs reads fixed-width (4-byte) host call arguments by position,
// counting from the stack pointer upward (position 0 nearest sp, matching
// the right-to-left push order genCall emits for non-variadic positions).
type hostArgs struct {
	vm   *VM
	argc int
}

func (a *hostArgs) addrOf(pos int) int { return a.vm.sp + pos*4 }
func (a *hostArgs) int32At(pos int) int32 { return a.vm.getInt32(a.addrOf(pos)) }
func (a *hostArgs) floatAt(pos int) float32 {
	return math.Float32frombits(uint32(a.int32At(pos)))
}

func (vm *VM) cstrLen(addr int) int {
	n := 0
	for addr+n < len(vm.mem) && vm.mem[addr+n] != 0 {
		n++
	}
	return n
}

func (vm *VM) cstr(addr int) string {
	return string(vm.mem[addr : addr+vm.cstrLen(addr)])
}

// doPrintf/doSprintf implement variadic host calls: the dispatcher scans
// the format string itself to know which pushed
// values are floats (promoted to double, 8 stack bytes) versus plain
// 4-byte ints/pointers, since the call site's static argument types aren't
// otherwise visible to the host bridge.
func (vm *VM) doPrintf(a *hostArgs, w io.Writer) (int32, error) {
	format := vm.cstr(int(a.int32At(0)))
	out, err := vm.expandFormat(format, a, 1)
	if err != nil {
		return 0, err
	}
	n, err := w.Write([]byte(out))
	return int32(n), err
}

func (vm *VM) doSprintf(a *hostArgs) (int32, error) {
	dest := int(a.int32At(0))
	format := vm.cstr(int(a.int32At(1)))
	out, err := vm.expandFormat(format, a, 2)
	if err != nil {
		return 0, err
	}
	copy(vm.mem[dest:], out)
	vm.mem[dest+len(out)] = 0
	return int32(len(out)), nil
}

// expandFormat walks fmtStr's conversion specifiers in order, pulling each
// variadic argument from the stack at a running byte offset that advances
// by 4 for ints/pointers/chars/strings and 8 for floats (%e %f %g).
func (vm *VM) expandFormat(fmtStr string, a *hostArgs, firstVarPos int) (string, error) {
	var out strings.Builder
	byteOff := a.addrOf(firstVarPos)
	i := 0
	for i < len(fmtStr) {
		c := fmtStr[i]
		if c != '%' {
			out.WriteByte(c)
			i++
			continue
		}
		start := i
		i++
		for i < len(fmtStr) && strings.IndexByte("-+ 0#123456789.", fmtStr[i]) >= 0 {
			i++
		}
		if i >= len(fmtStr) {
			out.WriteString(fmtStr[start:i])
			break
		}
		verb := fmtStr[i]
		spec := fmtStr[start : i+1]
		i++
		if verb == '%' {
			out.WriteByte('%')
			continue
		}
		switch verb {
		case 'f', 'e', 'g', 'E', 'G':
			bits := vm.getInt64(byteOff)
			byteOff += 8
			fmt.Fprintf(&out, translateVerb(spec), math.Float64frombits(uint64(bits)))
		case 'd', 'i':
			v := vm.getInt32(byteOff)
			byteOff += 4
			fmt.Fprintf(&out, translateVerb(spec), int(v))
		case 'u':
			v := vm.getInt32(byteOff)
			byteOff += 4
			fmt.Fprintf(&out, strings.TrimSuffix(translateVerb(spec), "u")+"d", uint32(v))
		case 'x', 'X', 'o':
			v := vm.getInt32(byteOff)
			byteOff += 4
			fmt.Fprintf(&out, translateVerb(spec), uint32(v))
		case 'c':
			v := vm.getInt32(byteOff)
			byteOff += 4
			out.WriteByte(byte(v))
		case 's':
			v := vm.getInt32(byteOff)
			byteOff += 4
			fmt.Fprintf(&out, translateVerb(spec), vm.cstr(int(v)))
		case 'p':
			v := vm.getInt32(byteOff)
			byteOff += 4
			fmt.Fprintf(&out, "0x%x", uint32(v))
		default:
			out.WriteString(spec)
		}
	}
	return out.String(), nil
}

// translateVerb passes C's printf spec through to Go's fmt verbatim except
// for the length modifiers C allows and Go doesn't (l, ll, h); Go's verb
// set otherwise matches closely enough for this subset's int/float/string
// formatting.
func translateVerb(spec string) string {
	spec = strings.NewReplacer("ll", "", "l", "", "h", "").Replace(spec)
	if strings.HasSuffix(spec, "i") {
		spec = spec[:len(spec)-1] + "d"
	}
	return spec
}

func (vm *VM) doOpen(a *hostArgs) (int32, error) {
	if vm.env.FS == nil {
		return -1, nil
	}
	path := vm.cstr(int(a.int32At(0)))
	flags := int(a.int32At(1))
	fd, err := vm.env.FS.Open(path, flags, 0644)
	if err != nil {
		return -1, nil
	}
	vm.openHandles[fd] = true
	return int32(fd), nil
}

func (vm *VM) doClose(a *hostArgs) (int32, error) {
	if vm.env.FS == nil {
		return -1, nil
	}
	fd := int(a.int32At(0))
	delete(vm.openHandles, fd)
	if err := vm.env.FS.Close(fd); err != nil {
		return -1, nil
	}
	return 0, nil
}

func (vm *VM) doRead(a *hostArgs) (int32, error) {
	if vm.env.FS == nil {
		return -1, nil
	}
	fd, buf, n := int(a.int32At(0)), int(a.int32At(1)), int(a.int32At(2))
	got, err := vm.env.FS.Read(fd, vm.mem[buf:buf+n])
	if err != nil && err != io.EOF {
		return -1, nil
	}
	return int32(got), nil
}

func (vm *VM) doWrite(a *hostArgs) (int32, error) {
	fd := int(a.int32At(0))
	buf, n := int(a.int32At(1)), int(a.int32At(2))
	if fd == 1 || fd == 2 {
		if vm.env.Stdout != nil {
			w, _ := vm.env.Stdout.Write(vm.mem[buf : buf+n])
			return int32(w), nil
		}
		return int32(n), nil
	}
	if vm.env.FS == nil {
		return -1, nil
	}
	w, err := vm.env.FS.Write(fd, vm.mem[buf:buf+n])
	if err != nil {
		return -1, nil
	}
	return int32(w), nil
}

func (vm *VM) doGetchar() int32 {
	if vm.env.Stdin == nil {
		return -1
	}
	var b [1]byte
	n, err := vm.env.Stdin.Read(b[:])
	if n == 0 || err != nil {
		return -1
	}
	return int32(b[0])
}

func (vm *VM) doMemset(a *hostArgs) int32 {
	addr, val, n := int(a.int32At(0)), byte(a.int32At(1)), int(a.int32At(2))
	buf := vm.mem[addr : addr+n]
	for i := range buf {
		buf[i] = val
	}
	return int32(addr)
}

func (vm *VM) doMemcmp(a *hostArgs) int32 {
	p1, p2, n := int(a.int32At(0)), int(a.int32At(1)), int(a.int32At(2))
	return int32(strings.Compare(string(vm.mem[p1:p1+n]), string(vm.mem[p2:p2+n])))
}

func (vm *VM) doMemcpy(a *hostArgs) int32 {
	dst, src, n := int(a.int32At(0)), int(a.int32At(1)), int(a.int32At(2))
	copy(vm.mem[dst:dst+n], vm.mem[src:src+n])
	return int32(dst)
}
