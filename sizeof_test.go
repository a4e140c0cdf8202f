package fiber

import (
	"testing"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Test_FastState_Padding verifies the cache-line isolation of the state
// cell: the value sits alone on its line, and the struct spans whole
// lines on the platforms we pad for.
func Test_FastState_Padding(t *testing.T) {
	const total = unsafe.Sizeof(FastState{})
	if total != 128 {
		t.Errorf("FastState size = %d bytes, want 128", total)
	}
	if off := unsafe.Offsetof(FastState{}.v); off != 64 {
		t.Errorf("value offset = %d, want 64", off)
	}

	line := unsafe.Sizeof(cpu.CacheLinePad{})
	if total < line {
		t.Errorf("FastState (%d bytes) is smaller than a cache line (%d)", total, line)
	}
	if total%line != 0 {
		t.Errorf("FastState (%d bytes) is not a whole number of cache lines (%d)", total, line)
	}
}
