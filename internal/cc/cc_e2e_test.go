package cc_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"j5.nz/rtg/internal/cc"
)

// compileAndCapture compiles src and runs it against a fresh VM, returning
// captured stdout and the program's exit code.
func compileAndCapture(t *testing.T, src string) (string, int) {
	t.Helper()
	ctx := cc.NewContext(nil)
	defer ctx.Close()
	text, entry, err := ctx.Compile([]byte(src + "\x00"))
	require.NoError(t, err)

	var out bytes.Buffer
	env := &cc.HostEnv{Stdout: &out, Periph: cc.NewSimPeripherals()}
	vm := cc.NewVM(text, ctx.Data, ctx.Host, env)
	code, err := vm.Run(entry)
	require.NoError(t, err)
	return out.String(), code
}

func TestArithmeticExpression(t *testing.T) {
	out, code := compileAndCapture(t, `int main(){ printf("%d\n", 2+3*4); }`)
	assert.Equal(t, "14\n", out)
	assert.Equal(t, 0, code)
}

func TestFloatRecursionApproximatesPi(t *testing.T) {
	src := `
float F(int i){
	if(i>20) return 1.0;
	return 1.0 + (float)i/(2.0*(float)i+1.0)*F(i+1);
}
int main(){ printf("%f\n", 2.0*F(1)); }
`
	out, code := compileAndCapture(t, src)
	assert.Equal(t, 0, code)
	out = strings.TrimSuffix(out, "\n")
	assert.True(t, strings.HasPrefix(out, "3.14159"), "expected pi approximation, got %q", out)
}

func TestRecursiveFactorial(t *testing.T) {
	src := `
int f(int n){ return n<2 ? 1 : n*f(n-1); }
int main(){ printf("%d\n", f(10)); }
`
	out, code := compileAndCapture(t, src)
	assert.Equal(t, "3628800\n", out)
	assert.Equal(t, 0, code)
}

func TestDisassemblyContainsExpectedMnemonics(t *testing.T) {
	src := `
int f(int n){ return n<2 ? 1 : n*f(n-1); }
int main(){ printf("%d\n", f(10)); }
`
	ctx := cc.NewContext(nil)
	defer ctx.Close()
	text, _, err := ctx.Compile([]byte(src + "\x00"))
	require.NoError(t, err)

	var out bytes.Buffer
	cc.Disassemble(&out, text)
	dump := out.String()

	for _, mnemonic := range []string{"ENT", "LEA", "LI", "BZ", "IMM      1", "JSR", "MUL", "LEV", "EXIT"} {
		assert.Contains(t, dump, mnemonic)
	}
	for _, line := range strings.Split(dump, "\n") {
		assert.LessOrEqual(t, len(line), 80, "disassembly line too long: %q", line)
	}
}

func TestQuicksortSortsFixedArray(t *testing.T) {
	src := `
void swap(int *a, int *b){ int t; t=*a; *a=*b; *b=t; }
void qsort_(int *a, int lo, int hi){
	int pivot; int i; int j;
	if(lo>=hi) return;
	pivot = a[(lo+hi)/2];
	i=lo;
	j=hi;
	while(i<=j){
		while(a[i]<pivot) i=i+1;
		while(a[j]>pivot) j=j-1;
		if(i<=j){ swap(&a[i],&a[j]); i=i+1; j=j-1; }
	}
	qsort_(a,lo,j);
	qsort_(a,i,hi);
}
int a[10];
int main(){
	int i;
	a[0]=9; a[1]=3; a[2]=7; a[3]=1; a[4]=8;
	a[5]=2; a[6]=6; a[7]=4; a[8]=0; a[9]=5;
	qsort_(a,0,9);
	for(i=0;i<10;i=i+1) printf("%d ", a[i]);
	printf("\n");
}
`
	out, code := compileAndCapture(t, src)
	assert.Equal(t, 0, code)
	assert.Equal(t, "0 1 2 3 4 5 6 7 8 9 \n", out)
}

func TestAllocatorClosesAfterCompile(t *testing.T) {
	ctx := cc.NewContext(nil)
	defer ctx.Close()
	_, _, err := ctx.Compile([]byte(`int main(){ printf("%d\n", 1); }` + "\x00"))
	require.NoError(t, err)
	assert.True(t, ctx.Tracker.Empty(), "outstanding: %v", ctx.Tracker.Outstanding())
}
