//go:build !linux

package fiber

// osThreadID reports the calling OS thread's id where the platform exposes
// one; 0 otherwise.
func osThreadID() int {
	return 0
}
