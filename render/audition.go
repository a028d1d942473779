package render

import (
	"bytes"
	"context"
	"encoding/binary"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Audition plays a through the default audio device and blocks until it
// finishes or ctx ends. Only one oto context may exist per process, so
// call this at most once.
func Audition(ctx context.Context, a *Audio) error {
	octx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   a.SampleRate,
		ChannelCount: wavChannels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return err
	}
	<-ready

	inter := make([]float32, 2*a.Frames())
	for i := range a.Left {
		inter[2*i] = a.Left[i]
		inter[2*i+1] = a.Right[i]
	}
	var pcm bytes.Buffer
	if err := binary.Write(&pcm, binary.LittleEndian, inter); err != nil {
		return err
	}

	player := octx.NewPlayer(bytes.NewReader(pcm.Bytes()))
	defer player.Close()
	player.Play()

	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}
