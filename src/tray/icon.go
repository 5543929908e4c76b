package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"

	"golang.org/x/image/draw"
)

const iconSize = 32

var (
	frameColor  = color.RGBA{0x00, 0x78, 0xd4, 0xff}
	dialogColor = color.RGBA{0x33, 0x33, 0x33, 0xff}
	paperColor  = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// Icon returns the tray icon: an owner window with a dialog on top. Windows
// wants ICO bytes, other platforms take the PNG directly.
func Icon() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, iconImage()); err != nil {
		return nil, err
	}
	if runtime.GOOS != "windows" {
		return buf.Bytes(), nil
	}
	return wrapICO(buf.Bytes(), iconSize), nil
}

func iconImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	fill := func(r image.Rectangle, c color.RGBA) {
		draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
	}
	// owner window
	fill(image.Rect(2, 4, 26, 24), frameColor)
	fill(image.Rect(4, 9, 24, 22), paperColor)
	// dialog
	fill(image.Rect(12, 14, 30, 30), dialogColor)
	fill(image.Rect(14, 18, 28, 28), paperColor)
	return img
}

// wrapICO packs a single PNG image into an ICO container (Vista+ format).
func wrapICO(pngData []byte, size int) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian
	_ = binary.Write(&b, le, [3]uint16{0, 1, 1}) // reserved, type=icon, count
	b.WriteByte(byte(size))
	b.WriteByte(byte(size))
	b.WriteByte(0) // palette
	b.WriteByte(0) // reserved
	_ = binary.Write(&b, le, uint16(1))  // planes
	_ = binary.Write(&b, le, uint16(32)) // bpp
	_ = binary.Write(&b, le, uint32(len(pngData)))
	_ = binary.Write(&b, le, uint32(6+16))
	b.Write(pngData)
	return b.Bytes()
}
