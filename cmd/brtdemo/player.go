package main

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// stereoPlayer drives an oto.Player from a mutex-guarded FIFO of
// interleaved stereo float32 frames that grows as blocks are pushed, the
// Go-native oto/v3 integration
// pattern grounded on IntuitionAmiga-IntuitionEngine's audio_backend_oto.go
// (atomic-free here since brtdemo's render loop is single-goroutine;
// IntuitionAmiga's atomic.Pointer handles a producer/consumer split this
// demo doesn't need).
type stereoPlayer struct {
	ctx    *oto.Context
	player *oto.Player

	mu  sync.Mutex
	buf []byte // pending interleaved float32 stereo bytes, FIFO
}

// newStereoPlayer opens the default audio device at sampleRate, stereo,
// 32-bit float little-endian (oto.FormatFloat32LE), and starts playback
// immediately; callers feed it via pushFrames.
func newStereoPlayer(sampleRate int) (*stereoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	p := &stereoPlayer{ctx: ctx}
	p.player = ctx.NewPlayer(p)
	p.player.Play()
	return p, nil
}

// pushFrames interleaves a rendered stereo block into the player's FIFO.
func (p *stereoPlayer) pushFrames(left, right []float64) {
	frame := make([]byte, len(left)*8)
	for i := range left {
		putFloat32LE(frame[i*8:], float32(left[i]))
		putFloat32LE(frame[i*8+4:], float32(right[i]))
	}
	p.mu.Lock()
	p.buf = append(p.buf, frame...)
	p.mu.Unlock()
}

// Read implements io.Reader for oto.Player: it drains the FIFO, zero-
// filling any shortfall so a slow producer underruns to silence instead of
// blocking the audio callback.
func (p *stereoPlayer) Read(dst []byte) (int, error) {
	p.mu.Lock()
	n := copy(dst, p.buf)
	p.buf = p.buf[n:]
	p.mu.Unlock()
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return len(dst), nil
}

// Close stops playback and releases the device.
func (p *stereoPlayer) Close() error {
	if p.player != nil {
		if err := p.player.Close(); err != nil {
			return err
		}
	}
	return nil
}

func putFloat32LE(dst []byte, v float32) {
	bits := math.Float32bits(v)
	dst[0] = byte(bits)
	dst[1] = byte(bits >> 8)
	dst[2] = byte(bits >> 16)
	dst[3] = byte(bits >> 24)
}
