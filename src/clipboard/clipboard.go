package clipboard

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/bmp"
)

// ErrClipboard wraps every failure to place a bitmap on the clipboard.
var ErrClipboard = errors.New("clipboard error")

const (
	fileHeaderSize = 14
	infoHeaderSize = 40
)

// Transport is one clipboard transaction step. Publish always calls Close after
// a successful Open.
type Transport interface {
	Open() error
	Empty() error
	SetDIB(dib []byte) error
	Close() error
}

// Publisher serializes clipboard writes from capture jobs.
type Publisher struct {
	mu sync.Mutex
	t  Transport
}

func NewPublisher(t Transport) *Publisher {
	return &Publisher{t: t}
}

// Publish encodes img as a packed DIB and replaces the clipboard content with it.
// Encoding happens before the clipboard is opened, so an encode failure leaves the
// previous content untouched.
func (p *Publisher) Publish(img image.Image) error {
	dib, err := EncodeDIB(img)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrClipboard, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.t.Open(); err != nil {
		return fmt.Errorf("%w: open: %w", ErrClipboard, err)
	}
	err = p.transfer(dib)
	if cerr := p.t.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: close: %w", ErrClipboard, cerr)
	}
	return err
}

func (p *Publisher) transfer(dib []byte) error {
	if err := p.t.Empty(); err != nil {
		return fmt.Errorf("%w: empty: %w", ErrClipboard, err)
	}
	if err := p.t.SetDIB(dib); err != nil {
		return fmt.Errorf("%w: set data: %w", ErrClipboard, err)
	}
	return nil
}

// EncodeDIB returns img as a CF_DIB payload: a BITMAPINFOHEADER followed by
// bottom-up 24-bit rows, without the BMP file header.
func EncodeDIB(img image.Image) ([]byte, error) {
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image %v", img.Bounds())
	}
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	if len(data) < fileHeaderSize+infoHeaderSize {
		return nil, fmt.Errorf("bitmap too short: %d bytes", len(data))
	}
	dib := data[fileHeaderSize:]
	if n := binary.LittleEndian.Uint32(dib[0:4]); n != infoHeaderSize {
		return nil, fmt.Errorf("unexpected info header size %d", n)
	}
	return dib, nil
}

// WrapDIB prepends a BMP file header so a DIB can be decoded as a .bmp stream.
func WrapDIB(dib []byte) ([]byte, error) {
	if len(dib) < infoHeaderSize {
		return nil, fmt.Errorf("dib too short: %d bytes", len(dib))
	}
	headerSize := binary.LittleEndian.Uint32(dib[0:4])
	bpp := binary.LittleEndian.Uint16(dib[14:16])
	offset := fileHeaderSize + headerSize
	if bpp <= 8 {
		colors := binary.LittleEndian.Uint32(dib[32:36])
		if colors == 0 {
			colors = 1 << bpp
		}
		offset += 4 * colors
	}

	out := make([]byte, fileHeaderSize, fileHeaderSize+len(dib))
	out[0], out[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(out[2:6], uint32(fileHeaderSize+len(dib)))
	binary.LittleEndian.PutUint32(out[10:14], offset)
	return append(out, dib...), nil
}

// DecodeDIB parses a CF_DIB payload back into an image.
func DecodeDIB(dib []byte) (image.Image, error) {
	data, err := WrapDIB(dib)
	if err != nil {
		return nil, err
	}
	return bmp.Decode(bytes.NewReader(data))
}
