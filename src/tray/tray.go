package tray

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/getlantern/systray"
)

// Config describes the tray icon and its menu actions.
type Config struct {
	Title   string
	Tooltip string
	// OnCapture runs when "Capture now" is clicked. It must not block.
	OnCapture func()
	// OnExit runs once when the tray loop ends, after Quit or Destroy.
	OnExit func()
}

// Tray owns the notification-area icon.
type Tray struct {
	cfg  Config
	once sync.Once
}

var (
	mu         sync.Mutex
	ready      bool
	aboutLines = map[string]string{}
)

func New(cfg Config) (*Tray, error) {
	if cfg.Title == "" {
		return nil, fmt.Errorf("tray title is required")
	}
	return &Tray{cfg: cfg}, nil
}

// Run blocks in the systray message loop. Call it from its own goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Destroy removes the icon and ends Run.
func (t *Tray) Destroy() {
	t.once.Do(systray.Quit)
}

func (t *Tray) onReady() {
	icon, err := Icon()
	if err != nil {
		log.Printf("tray: icon: %v", err)
	} else {
		systray.SetIcon(icon)
	}
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.cfg.Tooltip)

	mCapture := systray.AddMenuItem("Capture now", "Capture the foreground dialog and its owner")
	mAbout := systray.AddMenuItem("About", "Show hotkey and resident info")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	mu.Lock()
	ready = true
	mu.Unlock()
	log.Printf("tray: ready")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				if t.cfg.OnCapture != nil {
					t.cfg.OnCapture()
				}
			case <-mAbout.ClickedCh:
				go showMessageBox(t.cfg.Title, aboutText(t.cfg.Title))
			case <-mQuit.ClickedCh:
				log.Printf("tray: quit requested")
				t.Destroy()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	mu.Lock()
	ready = false
	mu.Unlock()
	if t.cfg.OnExit != nil {
		t.cfg.OnExit()
	}
}

// UpdateTooltip sets the tooltip if the tray is running; otherwise it is a no-op.
func UpdateTooltip(text string) {
	mu.Lock()
	defer mu.Unlock()
	if ready {
		systray.SetTooltip(text)
	}
}

// SetAboutLine records a key/value line shown in the About box.
func SetAboutLine(key, value string) {
	mu.Lock()
	defer mu.Unlock()
	aboutLines[key] = value
}

func aboutText(title string) string {
	mu.Lock()
	defer mu.Unlock()
	var b strings.Builder
	b.WriteString(title)
	for _, k := range []string{"Hotkey", "Background", "Overlay", "Notifications", "Resident port"} {
		if v, ok := aboutLines[k]; ok {
			fmt.Fprintf(&b, "\n%s: %s", k, v)
		}
	}
	return b.String()
}
