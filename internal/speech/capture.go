// Package speech reads tutor replies aloud and turns recorded questions into
// text, using Google Cloud speech services.
package speech

import (
	"bytes"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/spotlight2/coach/internal/metrics"
)

const defaultMaxClipBytes = 5 << 20

var (
	// ErrCaptureBusy means the owner already holds an open capture.
	ErrCaptureBusy = errors.New("capture already open")
	// ErrClipTooLarge means a write would exceed the clip limit.
	ErrClipTooLarge = errors.New("clip too large")
	// ErrCaptureClosed is returned for writes after Stop or Release.
	ErrCaptureClosed = errors.New("capture closed")
)

// Clip is recorded audio.
type Clip struct {
	Data []byte
	// Encoding is a Speech-to-Text encoding name such as WEBM_OPUS.
	Encoding        string
	SampleRateHertz int
}

// Recorder hands out at most one capture per owner.
type Recorder struct {
	maxBytes int

	mu   sync.Mutex
	open map[uuid.UUID]*Capture
}

// NewRecorder creates a recorder; maxBytes <= 0 uses the default limit.
func NewRecorder(maxBytes int) *Recorder {
	if maxBytes <= 0 {
		maxBytes = defaultMaxClipBytes
	}
	return &Recorder{maxBytes: maxBytes, open: make(map[uuid.UUID]*Capture)}
}

// Acquire opens a capture for owner. The caller must Release it.
func (r *Recorder) Acquire(owner uuid.UUID, encoding string, sampleRate int) (*Capture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.open[owner]; busy {
		return nil, ErrCaptureBusy
	}
	c := &Capture{
		owner:      owner,
		recorder:   r,
		encoding:   encoding,
		sampleRate: sampleRate,
	}
	r.open[owner] = c
	metrics.OpenCaptures.Inc()
	return c, nil
}

// WithCapture acquires a capture, runs fn, and releases it on every path.
func (r *Recorder) WithCapture(owner uuid.UUID, encoding string, sampleRate int, fn func(*Capture) error) error {
	c, err := r.Acquire(owner, encoding, sampleRate)
	if err != nil {
		return err
	}
	defer c.Release()
	return fn(c)
}

// Open reports the number of unreleased captures.
func (r *Recorder) Open() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}

func (r *Recorder) release(c *Capture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open[c.owner] == c {
		delete(r.open, c.owner)
		metrics.OpenCaptures.Dec()
	}
}

// Capture buffers audio for one recording.
type Capture struct {
	owner      uuid.UUID
	recorder   *Recorder
	encoding   string
	sampleRate int

	mu       sync.Mutex
	buf      bytes.Buffer
	stopped  bool
	released bool
}

// Write appends audio. It fails once the clip limit would be exceeded.
func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || c.released {
		return 0, ErrCaptureClosed
	}
	if c.buf.Len()+len(p) > c.recorder.maxBytes {
		return 0, ErrClipTooLarge
	}
	return c.buf.Write(p)
}

// Stop ends recording and returns the clip. Later writes fail.
func (c *Capture) Stop() (Clip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return Clip{}, ErrCaptureClosed
	}
	c.stopped = true
	data := make([]byte, c.buf.Len())
	copy(data, c.buf.Bytes())
	return Clip{Data: data, Encoding: c.encoding, SampleRateHertz: c.sampleRate}, nil
}

// Release frees the capture. It is safe to call more than once.
func (c *Capture) Release() {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return
	}
	c.released = true
	c.buf.Reset()
	c.mu.Unlock()

	c.recorder.release(c)
}
