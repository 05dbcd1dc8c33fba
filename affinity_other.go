//go:build !linux

package prioritypool

import (
	"bytes"
	"errors"
	"runtime"
	"strconv"
)

var errPinUnsupported = errors.New("prioritypool: cpu pinning is only supported on linux")

// PinToCPU is not supported on this platform.
func PinToCPU(int) error { return errPinUnsupported }

func allowedCPUs() ([]int, error) { return nil, errPinUnsupported }

// currentThreadID falls back to the goroutine id, which is equally unique
// for the lifetime of a worker.
func currentThreadID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// "goroutine 123 [running]:..."
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
