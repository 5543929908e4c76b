package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"win-dialog-shot/src/clipboard"
	"win-dialog-shot/src/compositor"
	"win-dialog-shot/src/geometry"
	"win-dialog-shot/src/region"
	"win-dialog-shot/src/screenshot"
	"win-dialog-shot/src/window"
)

type fakeDesktop struct {
	foreground uintptr
	parents    map[uintptr]uintptr
	owners     map[uintptr]uintptr
	rects      map[uintptr]geometry.Rect
}

func (d *fakeDesktop) Foreground() uintptr      { return d.foreground }
func (d *fakeDesktop) Parent(h uintptr) uintptr { return d.parents[h] }
func (d *fakeDesktop) Owner(h uintptr) uintptr  { return d.owners[h] }
func (d *fakeDesktop) Title(h uintptr) string   { return "window" }
func (d *fakeDesktop) WindowRect(h uintptr) (geometry.Rect, error) {
	return d.rects[h], nil
}
func (d *fakeDesktop) ExtendedFrameBounds(h uintptr) (geometry.Rect, error) {
	return d.rects[h], nil
}

type fakeOverlay struct {
	shown, hidden int
	below         uintptr
	visible       bool
}

func (o *fakeOverlay) Show(_ context.Context, below uintptr) error {
	o.shown++
	o.below = below
	o.visible = true
	return nil
}

func (o *fakeOverlay) Hide() error {
	o.hidden++
	o.visible = false
	return nil
}

type fakePublisher struct {
	err       error
	got       image.Image
	overlayOn bool
	ov        *fakeOverlay
}

func (p *fakePublisher) Publish(img image.Image) error {
	p.overlayOn = p.ov.visible
	if p.err != nil {
		return p.err
	}
	p.got = img
	return nil
}

var (
	white = color.RGBA{255, 255, 255, 255}
	grey  = color.RGBA{90, 90, 90, 255}
)

func dialogDesktop() *fakeDesktop {
	return &fakeDesktop{
		foreground: 2,
		owners:     map[uintptr]uintptr{2: 1},
		rects: map[uintptr]geometry.Rect{
			1: {Left: 100, Top: 100, Right: 500, Bottom: 400},
			2: {Left: 400, Top: 300, Right: 600, Bottom: 450},
		},
	}
}

func solidGrabber(c color.RGBA) screenshot.GrabberFunc {
	return func(r geometry.Rect) (*image.RGBA, error) {
		img := image.NewRGBA(image.Rect(0, 0, r.Width(), r.Height()))
		compositor.Fill(img, c)
		return img, nil
	}
}

func newPipeline(d *fakeDesktop, g screenshot.Grabber, pubErr error) (*Pipeline, *fakeOverlay, *fakePublisher) {
	ov := &fakeOverlay{}
	pub := &fakePublisher{err: pubErr, ov: ov}
	return &Pipeline{
		System:     d,
		Resolver:   window.NewResolver(d),
		Grabber:    g,
		Compositor: compositor.New(white),
		Overlay:    ov,
		Publisher:  pub,
	}, ov, pub
}

func TestRunDialogWithOwner(t *testing.T) {
	var grabbed geometry.Rect
	grab := screenshot.GrabberFunc(func(r geometry.Rect) (*image.RGBA, error) {
		grabbed = r
		return solidGrabber(grey)(r)
	})
	p, ov, pub := newPipeline(dialogDesktop(), grab, nil)

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := geometry.Rect{Left: 100, Top: 100, Right: 600, Bottom: 450}
	if grabbed != want || res.Plan.Enclosing != want {
		t.Errorf("grabbed %v, plan %v, expected %v", grabbed, res.Plan.Enclosing, want)
	}
	if ov.below != 1 {
		t.Errorf("overlay placed below %d, expected owner 1", ov.below)
	}
	if pub.overlayOn {
		t.Error("overlay still visible while publishing")
	}

	img, ok := pub.got.(*image.RGBA)
	if !ok {
		t.Fatalf("published %T", pub.got)
	}
	if img.Bounds() != image.Rect(0, 0, 500, 350) {
		t.Fatalf("canvas bounds %v", img.Bounds())
	}
	checks := []struct {
		p    image.Point
		want color.RGBA
	}{
		{image.Pt(10, 10), grey},   // owner
		{image.Pt(350, 250), grey}, // dialog
		{image.Pt(450, 50), white}, // right of owner, above dialog
		{image.Pt(50, 320), white}, // below owner, left of dialog
	}
	for _, c := range checks {
		if got := img.RGBAAt(c.p.X, c.p.Y); got != c.want {
			t.Errorf("pixel %v = %v, expected %v", c.p, got, c.want)
		}
	}
}

func TestRunErrors(t *testing.T) {
	grabErr := screenshot.GrabberFunc(func(geometry.Rect) (*image.RGBA, error) {
		return nil, errors.New("BitBlt failed")
	})
	clipErr := errors.Join(clipboard.ErrClipboard, errors.New("open"))

	tests := []struct {
		name     string
		desktop  func() *fakeDesktop
		grabber  screenshot.Grabber
		pubErr   error
		wantErr  error
		wantKind string
		wantShow int
	}{
		{
			name:     "no foreground window",
			desktop:  func() *fakeDesktop { return &fakeDesktop{} },
			grabber:  solidGrabber(grey),
			wantErr:  window.ErrNoActiveWindow,
			wantKind: KindNoActiveWindow,
		},
		{
			name: "zero size window",
			desktop: func() *fakeDesktop {
				return &fakeDesktop{foreground: 5, rects: map[uintptr]geometry.Rect{5: {Left: 10, Top: 10, Right: 10, Bottom: 10}}}
			},
			grabber:  solidGrabber(grey),
			wantErr:  region.ErrDegenerateRegion,
			wantKind: KindDegenerateRegion,
		},
		{
			name:     "grab failure",
			desktop:  dialogDesktop,
			grabber:  grabErr,
			wantErr:  screenshot.ErrGrabFailure,
			wantKind: KindGrabFailure,
			wantShow: 1,
		},
		{
			name:     "clipboard failure",
			desktop:  dialogDesktop,
			grabber:  solidGrabber(grey),
			pubErr:   clipErr,
			wantErr:  clipboard.ErrClipboard,
			wantKind: KindClipboardError,
			wantShow: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ov, _ := newPipeline(tt.desktop(), tt.grabber, tt.pubErr)
			_, err := p.Run(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, expected %v", err, tt.wantErr)
			}
			if k := KindOf(err); k != tt.wantKind {
				t.Errorf("KindOf = %s, expected %s", k, tt.wantKind)
			}
			if ov.shown != tt.wantShow || ov.hidden != tt.wantShow {
				t.Errorf("overlay shown %d hidden %d, expected %d each", ov.shown, ov.hidden, tt.wantShow)
			}
			if ov.visible {
				t.Error("overlay left visible")
			}
			if err := p.Handle(context.Background()); err == nil {
				t.Error("Handle should report the same failure")
			}
		})
	}
}

func TestRunWrapsUntypedGrabError(t *testing.T) {
	grab := screenshot.GrabberFunc(func(geometry.Rect) (*image.RGBA, error) {
		return nil, errors.New("plain failure")
	})
	p, _, _ := newPipeline(dialogDesktop(), grab, nil)
	if _, err := p.Run(context.Background()); KindOf(err) != KindGrabFailure {
		t.Errorf("KindOf(%v) = %s", err, KindOf(err))
	}
}

func TestKindOfUnknown(t *testing.T) {
	if k := KindOf(errors.New("other")); k != KindUnknown {
		t.Errorf("KindOf = %s", k)
	}
}

func TestRunDeadlineStopsBlockedGrab(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	blocked := screenshot.GrabberFunc(func(r geometry.Rect) (*image.RGBA, error) {
		<-release
		return solidGrabber(grey)(r)
	})
	p, ov, pub := newPipeline(dialogDesktop(), blocked, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := p.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, expected deadline exceeded", err)
	}
	if d := time.Since(start); d > 2*time.Second {
		t.Errorf("Run returned after %v, expected shortly after the deadline", d)
	}
	if KindOf(err) != KindCancelled {
		t.Errorf("KindOf = %s, expected %s", KindOf(err), KindCancelled)
	}
	if pub.got != nil {
		t.Error("publisher received an image after the deadline")
	}
	if ov.visible || ov.hidden != 1 {
		t.Errorf("overlay visible=%v hidden=%d, expected hidden once", ov.visible, ov.hidden)
	}
}

func TestRunCancelledBeforeGrab(t *testing.T) {
	grabbed := false
	g := screenshot.GrabberFunc(func(r geometry.Rect) (*image.RGBA, error) {
		grabbed = true
		return solidGrabber(grey)(r)
	})
	p, ov, pub := newPipeline(dialogDesktop(), g, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, expected context.Canceled", err)
	}
	if grabbed || pub.got != nil || ov.shown != 0 {
		t.Errorf("grabbed=%v published=%v shown=%d, expected nothing to run", grabbed, pub.got != nil, ov.shown)
	}
}
