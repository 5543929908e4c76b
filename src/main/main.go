package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"win-dialog-shot/src/capture"
	"win-dialog-shot/src/clipboard"
	"win-dialog-shot/src/compositor"
	"win-dialog-shot/src/config"
	"win-dialog-shot/src/eventloop"
	"win-dialog-shot/src/hotkey"
	"win-dialog-shot/src/logutil"
	"win-dialog-shot/src/notification"
	"win-dialog-shot/src/overlay"
	"win-dialog-shot/src/runtimeinit"
	"win-dialog-shot/src/screenshot"
	"win-dialog-shot/src/singleinstance"
	"win-dialog-shot/src/tray"
	"win-dialog-shot/src/window"
)

const appName = "win-dialog-shot"

type mainOptions struct {
	runOnce    bool
	hotkey     string
	background string
	noOverlay  bool
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	// Lock main goroutine to its own OS thread so it never shares the
	// overlay or tray thread's message queue
	runtime.LockOSThread()

	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{appName}
	}
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Copy the foreground dialog and its owner window to the clipboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts)
		},
	}

	cmd.Flags().BoolVar(&opts.runOnce, "run-once", false, "Capture once (via a running resident if any) and exit")
	cmd.Flags().StringVar(&opts.hotkey, "hotkey", "", "Hotkey chord, overrides HOTKEY")
	cmd.Flags().StringVar(&opts.background, "background", "", "Background colour as R,G,B or #rrggbb, overrides BACKGROUND_COLOR")
	cmd.Flags().BoolVar(&opts.noOverlay, "no-overlay", false, "Disable the backdrop overlay")

	return cmd
}

// normalizeLegacyArgs maps single-dash long flags (-run-once) to cobra's --run-once.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"run-once", "hotkey", "background", "no-overlay"} {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "--" + arg[1:]
			}
		}
	}

	return normalized
}

func runWithOptions(opts mainOptions) error {
	cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			HotkeyOverride:     opts.hotkey,
			BackgroundOverride: opts.background,
			NoOverlay:          opts.noOverlay,
		},
		SetupLogging:   logutil.Setup,
		RequireDisplay: !opts.runOnce,
	})
	if err != nil {
		return err
	}

	if opts.runOnce {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.CaptureDeadline)
		defer cancel()
		return handleRunOnceWithDelegation(ctx, singleinstance.NewClient(), func() error {
			return newPipeline(cfg).Handle(ctx)
		})
	}
	return runResident(cfg)
}

// handleRunOnceWithDelegation asks a resident to capture. It falls back to a
// standalone capture when no resident answers or the handshake fails. A
// resident that accepted the request and failed is not retried locally.
func handleRunOnceWithDelegation(ctx context.Context, client singleinstance.Client, fallback func() error) error {
	delegated, summary, err := client.TryRunOnce(ctx)
	switch {
	case errors.Is(err, singleinstance.ErrBusy):
		log.Printf("[INFO] Resident is busy with another capture")
		return err
	case err != nil && delegated:
		log.Printf("[ERR] Resident capture failed: %v", err)
		return err
	case err != nil:
		log.Printf("Delegation error: %v; falling back to standalone", err)
		return fallback()
	case delegated:
		log.Printf("[OK]  Delegated to resident: %s", summary)
		return nil
	default:
		log.Printf("No resident detected (not delegated), running standalone")
		return fallback()
	}
}

func newPipeline(cfg *config.Config) *capture.Pipeline {
	sys := window.NewSystem()
	var ov overlay.Overlay = overlay.Noop{}
	if cfg.UseOverlay {
		ov = overlay.New(overlay.Options{Color: cfg.Background, Delay: cfg.OverlayDelay})
	}
	return &capture.Pipeline{
		System:     sys,
		Resolver:   window.NewResolver(sys),
		Grabber:    screenshot.New(),
		Compositor: compositor.New(cfg.Background),
		Overlay:    ov,
		Publisher:  clipboard.NewPublisher(clipboard.NewDefault()),
	}
}

// notifyingCapturer shows a toast when a resident capture fails. Cancelled
// captures stay silent because the user asked for them to stop.
type notifyingCapturer struct {
	inner eventloop.Capturer
	show  func(text string)
}

func (c notifyingCapturer) Handle(ctx context.Context) error {
	err := c.inner.Handle(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.show(notification.FailureText(capture.KindOf(err), err))
	}
	return err
}

func runResident(cfg *config.Config) error {
	if err := hotkey.Validate(cfg.Hotkey); err != nil {
		return err
	}

	// A second resident would lose the bind race anyway; fail before the tray appears.
	if addr, ok := singleinstance.FindResident(context.Background()); ok {
		fmt.Printf("%s is already running at %s\n", appName, addr)
		return fmt.Errorf("%w at %s", singleinstance.ErrAlreadyRunning, addr)
	}

	printBanner(cfg)
	logMonitorConfiguration()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var capturer eventloop.Capturer = newPipeline(cfg)
	if cfg.EnableNotifications {
		capturer = notifyingCapturer{inner: capturer, show: notification.Show}
	}
	loop := eventloop.New(cfg, capturer)
	tooltip := fmt.Sprintf("%s - Press %s to capture", appName, cfg.Hotkey)
	loop.SetDefaultTooltip(tooltip)
	loop.SetServer(singleinstance.NewServer())

	if cfg.EnableTray {
		tray.SetAboutLine("Hotkey", cfg.Hotkey)
		tray.SetAboutLine("Background", config.FormatColor(cfg.Background))
		tray.SetAboutLine("Overlay", onOff(cfg.UseOverlay))
		tray.SetAboutLine("Notifications", onOff(cfg.EnableNotifications))
		trayIcon, err := tray.New(tray.Config{
			Title:     appName,
			Tooltip:   tooltip,
			OnCapture: loop.Trigger,
			OnExit:    cancel,
		})
		if err != nil {
			return err
		}
		go trayIcon.Run()
		defer trayIcon.Destroy()
	}

	if err := loop.StartHotkey(ctx, cfg.Hotkey); err != nil {
		return fmt.Errorf("hotkey: %w", err)
	}

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		log.Printf("[INFO] Exit signal received. Shutting down...")
		cancel()
	}()

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("event loop stopped: %v", err)
		return err
	}
	log.Printf("[INFO] Goodbye!")
	return nil
}

func printBanner(cfg *config.Config) {
	log.Printf("=== %s ===", appName)
	log.Printf("  Capture: %s", cfg.Hotkey)
	log.Printf("  Exit:    CTRL+C or tray Quit")
	log.Printf("  Background color: %s (RGB)", config.FormatColor(cfg.Background))
	log.Printf("  Overlay mode: %s", onOff(cfg.UseOverlay))
	log.Printf("  Only owner + dialog are pasted. Corners filled with color.")
}

func onOff(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
