//go:build rp2040

package main

import (
	"bytes"
	_ "embed"
	"errors"
	"io"

	"fungen/core"
)

// The board has no card slot; the WAV waveform plays a file built into
// flash. It is a 441 Hz sine, 4410 samples, so it loops seamlessly.
//
//go:embed waveform.wav
var waveformWav []byte

// wavHeaderSize is where the samples start in the embedded file
const wavHeaderSize = 44

var errNoFile = errors.New("file not found")

type flashFile struct {
	*bytes.Reader
}

func (flashFile) Close() error { return nil }

// openFlashFile is the core.FileOpener for files built into the image
func openFlashFile(path string) (io.ReadSeekCloser, error) {
	if path != core.DefaultWavPath {
		return nil, errNoFile
	}
	return flashFile{bytes.NewReader(waveformWav)}, nil
}
