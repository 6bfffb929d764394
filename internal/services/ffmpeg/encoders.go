package ffmpeg

import (
	"context"
	"strings"
	"sync"
)

type encoderKey struct {
	binary string
	name   string
}

var (
	encoderMu    sync.Mutex
	encoderCache = map[encoderKey]bool{}
)

// HasEncoder reports whether the configured ffmpeg build exposes the named
// encoder. Results are memoized process-wide per (binary, encoder) pair so a
// run with many slides probes each binary once. Any probe failure is treated
// as "encoder unavailable" rather than an error.
func (c *CLI) HasEncoder(ctx context.Context, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	key := encoderKey{binary: c.binary, name: name}

	encoderMu.Lock()
	if known, ok := encoderCache[key]; ok {
		encoderMu.Unlock()
		return known
	}
	encoderMu.Unlock()

	available := c.probeEncoder(ctx, name)

	encoderMu.Lock()
	encoderCache[key] = available
	encoderMu.Unlock()
	return available
}

func (c *CLI) probeEncoder(ctx context.Context, name string) bool {
	result, err := c.Run(ctx, []string{"-hide_banner", "-loglevel", "error", "-encoders"})
	if err != nil || result.ExitCode != 0 {
		return false
	}
	return strings.Contains(result.Stdout, name)
}

// ResetEncoderCacheForTests clears the process-wide encoder capability cache
// and returns a restore function for the previous contents.
func ResetEncoderCacheForTests() func() {
	encoderMu.Lock()
	previous := encoderCache
	encoderCache = map[encoderKey]bool{}
	encoderMu.Unlock()
	return func() {
		encoderMu.Lock()
		encoderCache = previous
		encoderMu.Unlock()
	}
}
