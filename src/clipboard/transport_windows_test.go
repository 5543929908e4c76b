//go:build windows

package clipboard

import (
	"testing"

	"golang.org/x/sys/windows"
)

var procGetClipboardOwner = windows.NewLazySystemDLL("user32.dll").NewProc("GetClipboardOwner")

func TestOwnerWindowIsStable(t *testing.T) {
	first, err := ownerWindow()
	if err != nil {
		t.Skipf("no window station: %v", err)
	}
	if first == 0 {
		t.Fatal("owner window handle is zero")
	}
	second, _ := ownerWindow()
	if second != first {
		t.Errorf("owner window changed: %v then %v", first, second)
	}
}

func TestEmptyAssignsOwner(t *testing.T) {
	tr := NewDefault()
	if err := tr.Open(); err != nil {
		t.Skipf("clipboard unavailable: %v", err)
	}
	err := tr.Empty()
	if cerr := tr.Close(); cerr != nil {
		t.Errorf("Close failed: %v", cerr)
	}
	if err != nil {
		t.Fatalf("Empty failed: %v", err)
	}

	owner, _ := ownerWindow()
	got, _, _ := procGetClipboardOwner.Call()
	if owner == 0 || got != uintptr(owner) {
		t.Errorf("clipboard owner = %#x, expected %#x", got, owner)
	}
}
