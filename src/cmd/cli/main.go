package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"win-dialog-shot/src/clipboard"
	"win-dialog-shot/src/compositor"
	"win-dialog-shot/src/config"
	"win-dialog-shot/src/geometry"
	"win-dialog-shot/src/region"
)

const (
	maxFileSizeMB = 64
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	primary    string
	owner      string
	framePath  string
	outPath    string
	background string
}

func main() {
	if err := runWithArgs(os.Args, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		args = []string{"dialogshot-cli"}
	}
	cmd := newRootCmd(stdin, stdout)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "dialogshot-cli",
		Short:         "Inspect capture plans and composite frames offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.AddCommand(newPlanCmd(stdout), newComposeCmd(stdin, stdout))
	return root
}

func newPlanCmd(stdout io.Writer) *cobra.Command {
	opts := &cliOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the capture plan for a dialog and its owner as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := planFromOptions(*opts)
			if err != nil {
				return err
			}
			return writePlan(stdout, plan)
		},
	}
	addRectFlags(cmd, opts)
	return cmd
}

func newComposeCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	opts := &cliOptions{}
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Composite a PNG grab of the enclosing region into a BMP",
		Long: "compose reads a PNG whose top-left pixel is the top-left of the enclosing\n" +
			"rectangle, paints everything outside the two windows with the background\n" +
			"colour and writes the result as a BMP file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return compose(*opts, stdin, stdout)
		},
	}
	addRectFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.framePath, "frame", "", "Path to PNG frame (use '-' for stdin)")
	cmd.Flags().StringVar(&opts.outPath, "out", "-", "Output BMP path ('-' for stdout)")
	cmd.Flags().StringVar(&opts.background, "background", config.FormatColor(config.DefaultBackground), "Background colour as R,G,B or #rrggbb")
	_ = cmd.MarkFlagRequired("frame")
	return cmd
}

func addRectFlags(cmd *cobra.Command, opts *cliOptions) {
	cmd.Flags().StringVar(&opts.primary, "primary", "", "Primary window rect as left,top,right,bottom")
	cmd.Flags().StringVar(&opts.owner, "owner", "", "Owner window rect as left,top,right,bottom (optional)")
	_ = cmd.MarkFlagRequired("primary")
}

func planFromOptions(opts cliOptions) (region.Plan, error) {
	primary, err := parseRect(opts.primary)
	if err != nil {
		return region.Plan{}, fmt.Errorf("--primary: %w", err)
	}
	var owner *geometry.Rect
	if opts.owner != "" {
		r, err := parseRect(opts.owner)
		if err != nil {
			return region.Plan{}, fmt.Errorf("--owner: %w", err)
		}
		owner = &r
	}
	return region.Compute(primary, owner)
}

// parseRect accepts "l,t,r,b" with optional spaces.
func parseRect(s string) (geometry.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.Rect{}, fmt.Errorf("expected left,top,right,bottom, got %q", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return geometry.Rect{}, fmt.Errorf("invalid coordinate %q: %w", p, err)
		}
		v[i] = n
	}
	return geometry.Rect{Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}, nil
}

type rectJSON struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

type planJSON struct {
	Enclosing rectJSON   `json:"enclosing"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Boxes     []rectJSON `json:"boxes"`
	HasOwner  bool       `json:"has_owner"`
}

func toRectJSON(r geometry.Rect) rectJSON {
	return rectJSON{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}
}

func writePlan(w io.Writer, plan region.Plan) error {
	out := planJSON{
		Enclosing: toRectJSON(plan.Enclosing),
		Width:     plan.Width(),
		Height:    plan.Height(),
		HasOwner:  plan.Owner != nil,
	}
	for _, b := range plan.Boxes() {
		out.Boxes = append(out.Boxes, toRectJSON(b))
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func compose(opts cliOptions, stdin io.Reader, stdout io.Writer) error {
	plan, err := planFromOptions(opts)
	if err != nil {
		return err
	}
	bg, err := config.ParseColor(opts.background)
	if err != nil {
		return fmt.Errorf("--background: %w", err)
	}
	frame, err := readFrame(opts.framePath, stdin)
	if err != nil {
		return err
	}

	img := compositor.New(bg).Composite(frame, image.Pt(plan.Width(), plan.Height()), plan.Boxes())
	dib, err := clipboard.EncodeDIB(img)
	if err != nil {
		return err
	}
	file, err := clipboard.WrapDIB(dib)
	if err != nil {
		return err
	}

	if opts.outPath == "" || opts.outPath == "-" {
		_, err = stdout.Write(file)
		return err
	}
	return os.WriteFile(opts.outPath, file, 0o644)
}

func readFrame(path string, stdin io.Reader) (image.Image, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return nil, fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode PNG: %w", err)
	}
	return img, nil
}
