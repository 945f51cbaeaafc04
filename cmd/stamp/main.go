// Command stamp places a signature image on a local PDF the same way the
// browser does: clicks on the rendered page are mapped to page space, the
// last placement left after undo is committed and composed.
package main

import (
	"contract-signing/internal/compositor"
	"contract-signing/internal/placement"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type options struct {
	in           string
	image        string
	out          string
	page         int
	scale        float64
	pageHeightPx float64
	clicks       []string
	undo         int
	stampSize    string
}

func parseOptions(args []string) (options, error) {
	var opts options

	flags := pflag.NewFlagSet("stamp", pflag.ContinueOnError)
	flags.StringVar(&opts.in, "in", "", "source PDF")
	flags.StringVar(&opts.image, "image", "", "PNG or JPEG stamp image")
	flags.StringVar(&opts.out, "out", "", "where to write the stamped PDF")
	flags.IntVar(&opts.page, "page", 0, "zero based page index")
	flags.Float64Var(&opts.scale, "scale", 1, "pixels per point of the rendered page")
	flags.Float64Var(&opts.pageHeightPx, "page-height-px", 0, "height of the rendered page in pixels")
	flags.StringArrayVar(&opts.clicks, "click", nil, "click position x,y on the rendered page, repeatable")
	flags.IntVar(&opts.undo, "undo", 0, "number of placements to undo before committing")
	flags.StringVar(&opts.stampSize, "stamp-size", "170x70", "stamp size WxH in pixels")

	if err := flags.Parse(args); err != nil {
		return options{}, err
	}

	switch {
	case opts.in == "" || opts.image == "" || opts.out == "":
		return options{}, errors.New("--in, --image and --out are required")
	case opts.pageHeightPx <= 0:
		return options{}, errors.New("--page-height-px must be greater than zero")
	case len(opts.clicks) == 0:
		return options{}, errors.New("at least one --click is required")
	}
	return opts, nil
}

// commit replays the clicks and undos on a placement stack and returns the
// placement that would be sent.
func commit(opts options) (placement.Placement, error) {
	stampW, stampH, err := parseSize(opts.stampSize)
	if err != nil {
		return placement.Placement{}, err
	}

	viewport := placement.Viewport{Scale: opts.scale, PageHeightPixels: opts.pageHeightPx}
	stack := placement.NewStack(0)

	for _, click := range opts.clicks {
		p, err := parsePoint(click)
		if err != nil {
			return placement.Placement{}, err
		}
		rect, err := viewport.MapStamp(p.X, p.Y, stampW, stampH)
		if err != nil {
			return placement.Placement{}, err
		}
		stack.Push(placement.Placement{PageIndex: opts.page, Rect: rect, ImageRef: opts.image})
	}

	for i := 0; i < opts.undo; i++ {
		if _, err := stack.Undo(); err != nil {
			return placement.Placement{}, err
		}
	}

	return stack.Commit()
}

func run(logger *zap.Logger, opts options) error {
	committed, err := commit(opts)
	if err != nil {
		return err
	}

	source, err := os.ReadFile(opts.in)
	if err != nil {
		return errors.New("failed to read the source PDF: " + err.Error())
	}
	raw, err := os.ReadFile(opts.image)
	if err != nil {
		return errors.New("failed to read the stamp image: " + err.Error())
	}
	img, err := compositor.DetectImage(raw)
	if err != nil {
		return err
	}

	stamped, err := compositor.New(logger).Compose(source, committed.PageIndex, committed.Rect, img)
	if err != nil {
		return err
	}

	if err := os.WriteFile(opts.out, stamped, 0o644); err != nil {
		return errors.New("failed to write the output: " + err.Error())
	}

	logger.Info("stamped",
		zap.String("out", opts.out),
		zap.Int("page", committed.PageIndex),
		zap.Float64("x", committed.Rect.X),
		zap.Float64("y", committed.Rect.Y),
		zap.Float64("width", committed.Rect.Width),
		zap.Float64("height", committed.Rect.Height))
	return nil
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "setting up the logger failed:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger, opts); err != nil {
		logger.Error("stamping failed: " + err.Error())
		os.Exit(1)
	}
}
