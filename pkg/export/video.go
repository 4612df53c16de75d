package export

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/magpress/magpress/pkg/errors"
)

// Output geometry for encoded video. Height is rounded up from the page's
// 1415 logical units: 4:2:0 chroma subsampling requires even dimensions.
const (
	VideoWidth  = 1000
	VideoHeight = 1416
)

// Strategy selects the video rendering strategy.
type Strategy string

// Rendering strategies, in increasing fidelity and cost.
const (
	// StrategySlideshow shows each page raster as one static segment.
	StrategySlideshow Strategy = "slideshow"

	// StrategyFlip samples a deterministic page-turn animation per page.
	StrategyFlip Strategy = "flip"
)

// VideoOptions configures video assembly.
type VideoOptions struct {
	// FPS is the constant frame rate. Zero means 30.
	FPS int

	// PerPage is the display duration per page. Zero means 6s.
	PerPage time.Duration

	// MaxTotal caps the whole video; per-page duration shrinks
	// proportionally when the page count is large. Zero means 60s.
	MaxTotal time.Duration

	// Strategy selects slideshow or page-flip rendering. Empty means
	// slideshow.
	Strategy Strategy

	// Timeout bounds the encoder invocation. Zero means 5 minutes.
	Timeout time.Duration

	// FFmpegPath overrides the ffmpeg binary location.
	FFmpegPath string
}

func (o VideoOptions) fps() int {
	if o.FPS <= 0 {
		return 30
	}
	return o.FPS
}

func (o VideoOptions) perPage() time.Duration {
	if o.PerPage <= 0 {
		return 6 * time.Second
	}
	return o.PerPage
}

func (o VideoOptions) maxTotal() time.Duration {
	if o.MaxTotal <= 0 {
		return 60 * time.Second
	}
	return o.MaxTotal
}

func (o VideoOptions) timeout() time.Duration {
	if o.Timeout <= 0 {
		return 5 * time.Minute
	}
	return o.Timeout
}

// TotalDuration returns the exact video runtime for n pages:
// min(n · perPage, maxTotal).
func (o VideoOptions) TotalDuration(n int) time.Duration {
	total := time.Duration(n) * o.perPage()
	if mt := o.maxTotal(); total > mt {
		return mt
	}
	return total
}

// frameCounts distributes the exact total frame budget across pages so
// the encoded runtime equals TotalDuration to the frame.
func (o VideoOptions) frameCounts(n int) []int {
	totalFrames := int(math.Round(o.TotalDuration(n).Seconds() * float64(o.fps())))
	counts := make([]int, n)
	for i := range counts {
		counts[i] = totalFrames*(i+1)/n - totalFrames*i/n
	}
	return counts
}

// WriteVideo assembles ordered page rasters into an MP4 at outPath.
// Frames are staged in workDir (exclusively owned by the caller's job) and
// encoded with libx264, yuv420p, constant frame rate, and fast-start
// metadata for progressive playback.
//
// Frame order always matches page order; an encoder failure removes any
// partial output and surfaces a single terminal error.
func WriteVideo(ctx context.Context, outPath, workDir string, pages []PageRaster, opts VideoOptions) error {
	if err := checkOrder(pages, nil); err != nil {
		return err
	}

	var frameFn FrameFunc
	switch opts.Strategy {
	case StrategyFlip:
		frameFn = PageFlipFrames(pages)
	case StrategySlideshow, "":
		frameFn = SlideshowFrames(pages)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown video strategy %q", opts.Strategy)
	}

	if err := writeFrames(ctx, workDir, pages, frameFn, opts); err != nil {
		return err
	}

	return encode(ctx, outPath, workDir, opts)
}

// writeFrames samples the frame function into frame_%06d.png files. The
// slideshow strategy encodes each page once and reuses the bytes.
func writeFrames(ctx context.Context, workDir string, pages []PageRaster, frameFn FrameFunc, opts VideoOptions) error {
	counts := opts.frameCounts(len(pages))
	frame := 0

	for i := range pages {
		var static []byte // reused when every frame of the page is identical

		for f := 0; f < counts[i]; f++ {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(errors.ErrCodeCancelled, err, "write frames")
			}

			progress := float64(f) / float64(counts[i])
			img := frameFn(i, progress)

			var data []byte
			if img == pages[i].Image && static != nil {
				data = static
			} else {
				var buf bytes.Buffer
				if err := png.Encode(&buf, img); err != nil {
					return errors.Wrap(errors.ErrCodeAssembly, err, "encode frame for page %d", pages[i].Number)
				}
				data = buf.Bytes()
				if img == pages[i].Image {
					static = data
				}
			}

			name := filepath.Join(workDir, fmt.Sprintf("frame_%06d.png", frame))
			if err := os.WriteFile(name, data, 0644); err != nil {
				return errors.Wrap(errors.ErrCodeAssembly, err, "write frame %d", frame)
			}
			frame++
		}
	}
	return nil
}

// encode invokes ffmpeg over the staged frame sequence. The command is
// built with ffmpeg-go and executed under a context so cancellation tears
// down the subprocess.
func encode(ctx context.Context, outPath, workDir string, opts VideoOptions) error {
	fps := opts.fps()

	stream := ffmpeg.Input(
		filepath.Join(workDir, "frame_%06d.png"),
		ffmpeg.KwArgs{"framerate": fps},
	).
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d", VideoWidth, VideoHeight)}).
		Output(outPath, ffmpeg.KwArgs{
			"vcodec":   "libx264",
			"pix_fmt":  "yuv420p",
			"r":        fmt.Sprintf("%d", fps),
			"movflags": "+faststart",
		}).
		OverWriteOutput()

	if opts.FFmpegPath != "" {
		stream = stream.SetFfmpegPath(opts.FFmpegPath)
	}

	compiled := stream.Compile()

	encCtx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(encCtx, compiled.Path, compiled.Args[1:]...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(outPath) // never leave a partial artifact behind
		if encCtx.Err() != nil {
			return errors.Wrap(errors.ErrCodeEncoder, encCtx.Err(), "ffmpeg timed out or cancelled")
		}
		return errors.Wrap(errors.ErrCodeEncoder, err, "ffmpeg: %s", truncate(stderr.String(), 500))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
