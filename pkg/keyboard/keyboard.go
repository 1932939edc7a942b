// Package keyboard reads key presses from a raw terminal.
//
// Terminals only report presses (plus auto-repeat), never releases. A key is
// treated as held while repeats keep arriving and released once none has
// arrived for ReleaseAfter.
package keyboard

import (
	"context"
	"io"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Key names for the non-printable keys we understand. Printable keys are
// reported as themselves ("z", "1", "+").
const (
	KeyUp    = "up"
	KeyDown  = "down"
	KeyLeft  = "left"
	KeyRight = "right"
	KeyCtrlC = "ctrl-c"
	KeySpace = "space"
)

// DefaultReleaseAfter sits above the usual 250-500ms auto-repeat delay.
const DefaultReleaseAfter = 600 * time.Millisecond

type KeyEvent struct {
	Key     string
	Pressed bool
}

// Parse decodes a chunk of terminal input into key names.
func Parse(buf []byte) []string {
	var keys []string
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		switch {
		case b == 0x1b && i+2 < len(buf) && (buf[i+1] == '[' || buf[i+1] == 'O'):
			switch buf[i+2] {
			case 'A':
				keys = append(keys, KeyUp)
			case 'B':
				keys = append(keys, KeyDown)
			case 'C':
				keys = append(keys, KeyRight)
			case 'D':
				keys = append(keys, KeyLeft)
			}
			i += 2
		case b == 0x03:
			keys = append(keys, KeyCtrlC)
		case b == ' ':
			keys = append(keys, KeySpace)
		case b > ' ' && b < 0x7f:
			keys = append(keys, string(rune(b)))
		}
	}
	return keys
}

// tracker turns a stream of presses into press/release pairs.
type tracker struct {
	releaseAfter time.Duration
	lastSeen     map[string]time.Time
}

func newTracker(releaseAfter time.Duration) *tracker {
	return &tracker{releaseAfter: releaseAfter, lastSeen: map[string]time.Time{}}
}

func (t *tracker) press(key string, now time.Time) (KeyEvent, bool) {
	_, held := t.lastSeen[key]
	t.lastSeen[key] = now
	if held {
		return KeyEvent{}, false
	}
	return KeyEvent{Key: key, Pressed: true}, true
}

// expire releases keys not seen for releaseAfter, in name order.
func (t *tracker) expire(now time.Time) []KeyEvent {
	var released []KeyEvent
	for key, seen := range t.lastSeen {
		if now.Sub(seen) >= t.releaseAfter {
			released = append(released, KeyEvent{Key: key})
			delete(t.lastSeen, key)
		}
	}
	sort.Slice(released, func(i, j int) bool { return released[i].Key < released[j].Key })
	return released
}

type Reader struct {
	in           io.Reader
	releaseAfter time.Duration
}

func NewReader(in io.Reader, releaseAfter time.Duration) *Reader {
	if releaseAfter <= 0 {
		releaseAfter = DefaultReleaseAfter
	}
	return &Reader{in: in, releaseAfter: releaseAfter}
}

// Loop emits key events until the context ends or the input fails. It closes
// events on return.
func (r *Reader) Loop(ctx context.Context, events chan<- KeyEvent) error {
	defer close(events)

	chunks := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := r.in.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	t := newTracker(r.releaseAfter)
	ticker := time.NewTicker(r.releaseAfter / 4)
	defer ticker.Stop()

	send := func(e KeyEvent) bool {
		select {
		case events <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, "reading keyboard")
		case now := <-ticker.C:
			for _, e := range t.expire(now) {
				if !send(e) {
					return nil
				}
			}
		case chunk := <-chunks:
			now := time.Now()
			for _, key := range Parse(chunk) {
				if e, ok := t.press(key, now); ok {
					if !send(e) {
						return nil
					}
				}
			}
		}
	}
}

// MakeRaw puts stdin into raw mode. The returned function restores it.
func MakeRaw() (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, errors.Wrap(err, "raw terminal")
	}
	return func() { _ = term.Restore(fd, state) }, nil
}
