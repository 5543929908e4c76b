package clipboard

import (
	"bytes"
	"fmt"
	"image/png"
	"sync"

	xclip "golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init prepares the golang.design clipboard backend. Safe to call repeatedly.
func Init() error {
	initOnce.Do(func() {
		initErr = xclip.Init()
	})
	return initErr
}

// portableTransport publishes through golang.design/x/clipboard, which only
// accepts PNG image data. The DIB is decoded and re-encoded on SetDIB.
type portableTransport struct{}

// NewPortable returns a Transport backed by golang.design/x/clipboard.
func NewPortable() Transport { return portableTransport{} }

func (portableTransport) Open() error { return Init() }

// Empty is a no-op: the following write replaces every format.
func (portableTransport) Empty() error { return nil }

func (portableTransport) SetDIB(dib []byte) error {
	img, err := DecodeDIB(dib)
	if err != nil {
		return fmt.Errorf("decode dib: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	xclip.Write(xclip.FmtImage, buf.Bytes())
	return nil
}

func (portableTransport) Close() error { return nil }
