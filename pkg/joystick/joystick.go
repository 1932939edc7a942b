// Package joystick reads the Linux joystick API (/dev/input/js*).
package joystick

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Axis mappings for a DualShock-style pad on the Linux js driver:
//
//    L stick l/r = 0 (left = -32767; right = +32767)
//            u/d = 1 (up = -32767; down = +32767)
//    L2          = 2 (unpressed = -32767; fully-pressed = 32767)
//    R stick l/r = 3
//            u/d = 4
//    D-pad   l/r = 6
//            u/d = 7

type EventType uint8

const (
	EventTypeButton EventType = 0x01
	EventTypeAxis   EventType = 0x02

	eventTypeInit = 0x80
)

const (
	AxisLStickX = 0
	AxisLStickY = 1
	AxisL2      = 2
	AxisRStickX = 3
	AxisRStickY = 4
	AxisDPadX   = 6
	AxisDPadY   = 7

	axisMax = 32767
)

func (e EventType) String() string {
	switch e {
	case EventTypeAxis:
		return "axis"
	case EventTypeButton:
		return "button"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

type Joystick struct {
	device io.ReadCloser

	deviceEpoch    uint32
	epochSet       bool
	wallclockEpoch time.Time
	now            func() time.Time
}

type rawEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

type Event struct {
	Time   time.Time
	Value  int16
	Type   EventType
	Number uint8
	// Init is set on the synthetic events the driver sends on open to report
	// the initial state of every control.
	Init bool
}

func (e *Event) String() string {
	return fmt.Sprintf("%v(%v)=%v", e.Type, e.Number, e.Value)
}

// Normalized maps an axis value to [-1, 1].
func (e *Event) Normalized() float64 {
	v := float64(e.Value) / axisMax
	if v < -1 {
		return -1
	}
	return v
}

// Open opens a joystick device such as /dev/input/js0.
func Open(device string) (*Joystick, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, errors.Wrapf(err, "opening joystick %s", device)
	}
	return New(f), nil
}

// New reads events from an already open device.
func New(device io.ReadCloser) *Joystick {
	return &Joystick{
		device: device,
		now:    time.Now,
	}
}

func (j *Joystick) ReadEvent() (*Event, error) {
	var raw rawEvent
	if err := binary.Read(j.device, binary.LittleEndian, &raw); err != nil {
		return nil, err
	}

	if !j.epochSet {
		j.epochSet = true
		j.deviceEpoch = raw.Time
		j.wallclockEpoch = j.now()
	}

	return &Event{
		Time:   j.wallclockEpoch.Add(time.Duration(raw.Time-j.deviceEpoch) * time.Millisecond),
		Value:  raw.Value,
		Type:   EventType(raw.Type &^ eventTypeInit),
		Number: raw.Number,
		Init:   raw.Type&eventTypeInit != 0,
	}, nil
}

// Loop sends events until the context ends or the device fails. It closes
// events on return. A blocked read only notices cancellation once the device
// is closed or produces another event.
func (j *Joystick) Loop(ctx context.Context, events chan<- *Event) error {
	defer close(events)
	for ctx.Err() == nil {
		event, err := j.ReadEvent()
		if err != nil {
			return errors.Wrap(err, "reading joystick")
		}
		select {
		case events <- event:
		case <-ctx.Done():
		}
	}
	return ctx.Err()
}

func (j *Joystick) Close() error {
	return j.device.Close()
}
