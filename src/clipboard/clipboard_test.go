package clipboard

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/bmp"
)

// fakeTransport models clipboard content: Empty clears it, SetDIB replaces it.
type fakeTransport struct {
	content []byte
	open    bool
	closes  int

	failOpen, failEmpty, failSet, failClose bool
}

var errInjected = errors.New("injected")

func (f *fakeTransport) Open() error {
	if f.failOpen {
		return errInjected
	}
	f.open = true
	return nil
}

func (f *fakeTransport) Empty() error {
	if f.failEmpty {
		return errInjected
	}
	f.content = nil
	return nil
}

func (f *fakeTransport) SetDIB(dib []byte) error {
	if f.failSet {
		return errInjected
	}
	f.content = append([]byte(nil), dib...)
	return nil
}

func (f *fakeTransport) Close() error {
	f.open = false
	f.closes++
	if f.failClose {
		return errInjected
	}
	return nil
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 10), uint8(y * 20), 30, 255})
		}
	}
	return img
}

func TestEncodeDIBHeader(t *testing.T) {
	dib, err := EncodeDIB(testImage(5, 3))
	if err != nil {
		t.Fatalf("EncodeDIB failed: %v", err)
	}

	if got := binary.LittleEndian.Uint32(dib[0:4]); got != 40 {
		t.Errorf("biSize = %d, expected 40", got)
	}
	if w := int32(binary.LittleEndian.Uint32(dib[4:8])); w != 5 {
		t.Errorf("biWidth = %d, expected 5", w)
	}
	// Positive height means bottom-up rows.
	if h := int32(binary.LittleEndian.Uint32(dib[8:12])); h != 3 {
		t.Errorf("biHeight = %d, expected 3", h)
	}
	if bpp := binary.LittleEndian.Uint16(dib[14:16]); bpp != 24 {
		t.Errorf("biBitCount = %d, expected 24", bpp)
	}
	// 5 pixels * 3 bytes = 15, padded to 16 per row.
	if want := 40 + 16*3; len(dib) != want {
		t.Errorf("len = %d, expected %d", len(dib), want)
	}
	// First stored row is the bottom row; bytes are BGR.
	if b, g, r := dib[40], dib[41], dib[42]; r != 0 || g != 40 || b != 30 {
		t.Errorf("bottom-left pixel = (%d,%d,%d), expected (0,40,30)", r, g, b)
	}
}

func TestEncodeDIBRejectsEmpty(t *testing.T) {
	if _, err := EncodeDIB(image.NewRGBA(image.Rect(0, 0, 0, 10))); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestWrapDIBMatchesBMPFile(t *testing.T) {
	img := testImage(7, 4)
	var full bytes.Buffer
	if err := bmp.Encode(&full, img); err != nil {
		t.Fatalf("bmp.Encode failed: %v", err)
	}
	dib, err := EncodeDIB(img)
	if err != nil {
		t.Fatalf("EncodeDIB failed: %v", err)
	}
	wrapped, err := WrapDIB(dib)
	if err != nil {
		t.Fatalf("WrapDIB failed: %v", err)
	}
	if !bytes.Equal(wrapped, full.Bytes()) {
		t.Error("wrapped DIB differs from the encoder's own file output")
	}

	decoded, err := DecodeDIB(dib)
	if err != nil {
		t.Fatalf("DecodeDIB failed: %v", err)
	}
	r, g, b, _ := decoded.At(6, 3).RGBA()
	if r>>8 != 60 || g>>8 != 60 || b>>8 != 30 {
		t.Errorf("pixel (6,3) = (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestPublishReplacesContent(t *testing.T) {
	ft := &fakeTransport{content: []byte("previous")}
	if err := NewPublisher(ft).Publish(testImage(4, 4)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	want, _ := EncodeDIB(testImage(4, 4))
	if !bytes.Equal(ft.content, want) {
		t.Error("clipboard does not hold the encoded bitmap")
	}
	if ft.open || ft.closes != 1 {
		t.Errorf("open=%v closes=%d, expected closed exactly once", ft.open, ft.closes)
	}
}

func TestPublishFailures(t *testing.T) {
	previous := []byte("previous")
	tests := []struct {
		name       string
		ft         *fakeTransport
		wantCloses int
		// content after failure: previous or empty, never partial
		wantContent []byte
	}{
		{"open", &fakeTransport{failOpen: true}, 0, previous},
		{"empty", &fakeTransport{failEmpty: true}, 1, previous},
		{"set", &fakeTransport{failSet: true}, 1, nil},
		{"close", &fakeTransport{failClose: true}, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ft.content = previous
			err := NewPublisher(tt.ft).Publish(testImage(3, 3))
			if !errors.Is(err, ErrClipboard) {
				t.Fatalf("expected ErrClipboard, got %v", err)
			}
			if !errors.Is(err, errInjected) {
				t.Errorf("cause not preserved: %v", err)
			}
			if tt.ft.closes != tt.wantCloses {
				t.Errorf("closes = %d, expected %d", tt.ft.closes, tt.wantCloses)
			}
			if tt.name == "close" {
				// Data was handed over before Close failed.
				if len(tt.ft.content) == 0 {
					t.Error("expected content to be set before close failure")
				}
				return
			}
			if !bytes.Equal(tt.ft.content, tt.wantContent) {
				t.Errorf("content = %q, expected %q", tt.ft.content, tt.wantContent)
			}
		})
	}
}

func TestPublishEncodeFailureLeavesClipboardClosed(t *testing.T) {
	ft := &fakeTransport{content: []byte("previous")}
	err := NewPublisher(ft).Publish(image.NewRGBA(image.Rectangle{}))
	if !errors.Is(err, ErrClipboard) {
		t.Fatalf("expected ErrClipboard, got %v", err)
	}
	if ft.closes != 0 || string(ft.content) != "previous" {
		t.Errorf("clipboard touched on encode failure: closes=%d content=%q", ft.closes, ft.content)
	}
}
