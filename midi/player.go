package midi

import (
	"context"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"drum-trigger/debug"
)

// Sender delivers one message to an output
type Sender func(msg gomidi.Message) error

// Progress is published each time a note starts, and once more with Done
// set when playback ends.
type Progress struct {
	Index   int // entry index of the note that just started
	Note    uint8
	Tick    int64
	Elapsed time.Duration
	Done    bool
	Err     error
}

// Player sends an event list to an output in real time
type Player struct {
	send     Sender
	bpm      float64
	ticks    smf.MetricTicks
	progress chan Progress

	// wait blocks for d or until ctx ends; swapped out in tests
	wait func(ctx context.Context, d time.Duration) error
}

// NewPlayer creates a player for a stream at the given tempo
func NewPlayer(send Sender, bpm, ticksPerBeat int) *Player {
	return &Player{
		send:     send,
		bpm:      float64(bpm),
		ticks:    smf.MetricTicks(ticksPerBeat),
		progress: make(chan Progress, 16),
		wait:     sleep,
	}
}

// Progress returns the progress channel. It is closed when Play returns.
func (p *Player) Progress() <-chan Progress {
	return p.progress
}

// Duration is the wall-clock length of delta ticks
func (p *Player) Duration(delta uint32) time.Duration {
	return p.ticks.Duration(p.bpm, delta)
}

// Play sends the events honouring their deltas, then waits out endDelta.
// When ctx is cancelled every note still sounding gets a NoteOff before
// Play returns ctx.Err().
func (p *Player) Play(ctx context.Context, events []Event, endDelta uint32) (err error) {
	start := time.Now()
	sounding := map[[2]uint8]bool{}

	defer func() {
		if err != nil {
			for k := range sounding {
				_ = p.send(gomidi.NoteOff(k[0], k[1]))
			}
		}
		p.finish(Progress{Index: -1, Elapsed: time.Since(start), Done: true, Err: err})
		close(p.progress)
	}()

	var tick int64
	for _, e := range events {
		if err := p.wait(ctx, p.Duration(e.Delta)); err != nil {
			return err
		}
		tick += int64(e.Delta)

		key := [2]uint8{e.Channel, e.Note}
		if e.IsNoteOff() {
			if err := p.send(gomidi.NoteOffVelocity(e.Channel, e.Note, e.Velocity)); err != nil {
				return err
			}
			delete(sounding, key)
			continue
		}

		if err := p.send(gomidi.NoteOn(e.Channel, e.Note, e.Velocity)); err != nil {
			return err
		}
		sounding[key] = true
		debug.Log("player", "note on", "index", e.Index, "note", e.Note, "tick", tick)
		p.publish(Progress{Index: e.Index, Note: e.Note, Tick: tick, Elapsed: time.Since(start)})
	}

	return p.wait(ctx, p.Duration(endDelta))
}

// publish never blocks playback; a slow reader misses intermediate updates
func (p *Player) publish(pr Progress) {
	select {
	case p.progress <- pr:
	default:
	}
}

// finish delivers the final update without blocking. When the buffer is
// full the oldest queued update is dropped to make room, so a reader always
// sees Done and the error before the channel closes.
func (p *Player) finish(pr Progress) {
	for {
		select {
		case p.progress <- pr:
			return
		default:
		}
		select {
		case <-p.progress:
		default:
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
