package tray

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"strings"
	"testing"
)

func TestIconImage(t *testing.T) {
	img := iconImage()
	if img.Bounds().Dx() != iconSize || img.Bounds().Dy() != iconSize {
		t.Fatalf("icon bounds %v", img.Bounds())
	}
	if got := img.RGBAAt(20, 22); got != paperColor {
		t.Errorf("dialog body pixel = %v", got)
	}
	if got := img.RGBAAt(0, 0); got.A != 0 {
		t.Errorf("corner should be transparent, got %v", got)
	}
}

func TestWrapICO(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, iconImage()); err != nil {
		t.Fatal(err)
	}
	ico := wrapICO(buf.Bytes(), iconSize)

	if len(ico) != 22+buf.Len() {
		t.Fatalf("len = %d", len(ico))
	}
	if binary.LittleEndian.Uint16(ico[2:4]) != 1 || binary.LittleEndian.Uint16(ico[4:6]) != 1 {
		t.Error("bad ICO header")
	}
	if ico[6] != iconSize || ico[7] != iconSize {
		t.Errorf("size bytes = %d,%d", ico[6], ico[7])
	}
	if n := binary.LittleEndian.Uint32(ico[14:18]); int(n) != buf.Len() {
		t.Errorf("image size = %d", n)
	}
	if off := binary.LittleEndian.Uint32(ico[18:22]); off != 22 {
		t.Errorf("offset = %d", off)
	}
	if !bytes.Equal(ico[22:], buf.Bytes()) {
		t.Error("png payload mismatch")
	}
}

func TestAboutText(t *testing.T) {
	SetAboutLine("Hotkey", "Ctrl+Alt+S")
	SetAboutLine("Resident port", "49600")
	got := aboutText("win-dialog-shot")
	want := "win-dialog-shot\nHotkey: Ctrl+Alt+S\nResident port: 49600"
	if !strings.HasPrefix(got, "win-dialog-shot\nHotkey: Ctrl+Alt+S") || !strings.HasSuffix(got, "Resident port: 49600") {
		t.Errorf("aboutText = %q, expected like %q", got, want)
	}
}

func TestUpdateTooltipBeforeReady(t *testing.T) {
	// Must not touch systray before Run.
	UpdateTooltip("idle")
}

func TestNewRequiresTitle(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty title")
	}
}
