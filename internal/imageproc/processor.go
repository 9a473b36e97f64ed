package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// MaxDimension bounds generated images on either axis.
const MaxDimension = 4096

// Info describes a decoded image.
type Info struct {
	Format string
	Width  int
	Height int
}

// DetectFormat inspects the raw bytes and returns the image format:
// "jpeg", "png", "gif", "webp", or "" if unknown.
func DetectFormat(data []byte) string {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "jpeg"
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return "png"
	case len(data) >= 6 && string(data[:3]) == "GIF":
		return "gif"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "webp"
	}
	return ""
}

// NormalizeFormat lower-cases format and maps the "jpg" alias to "jpeg".
// It reports false for formats Inspect cannot decode.
func NormalizeFormat(format string) (string, bool) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "jpg" {
		f = "jpeg"
	}
	switch f {
	case "png", "jpeg", "gif":
		return f, true
	}
	return f, false
}

// ContentType maps an image format string to its MIME type.
func ContentType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// Generate renders a width x height test card in the given format: a light
// background with a centred block, so scaling and cropping bugs are visible.
func Generate(format string, width, height int) ([]byte, error) {
	if width < 1 || height < 1 || width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("dimensions %dx%d out of range 1..%d", width, height, MaxDimension)
	}
	f, err := imagingFormat(format)
	if err != nil {
		return nil, err
	}

	canvas := imaging.New(width, height, color.NRGBA{R: 0xF2, G: 0xF2, B: 0xF2, A: 0xFF})
	bw, bh := max(width/2, 1), max(height/2, 1)
	block := imaging.New(bw, bh, color.NRGBA{R: 0x1E, G: 0x6F, B: 0xD9, A: 0xFF})
	img := imaging.PasteCenter(canvas, block)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// Inspect decodes data and reports its format and dimensions.
func Inspect(data []byte) (Info, error) {
	format := DetectFormat(data)
	if format == "" {
		return Info{}, fmt.Errorf("unsupported or unrecognized image format")
	}
	if format == "webp" {
		return Info{}, fmt.Errorf("webp decoding is not supported")
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("decoding image: %w", err)
	}
	return infoFor(format, img), nil
}

func infoFor(format string, img image.Image) Info {
	b := img.Bounds()
	return Info{Format: format, Width: b.Dx(), Height: b.Dy()}
}

func imagingFormat(format string) (imaging.Format, error) {
	switch format {
	case "jpeg", "jpg":
		return imaging.JPEG, nil
	case "png":
		return imaging.PNG, nil
	case "gif":
		return imaging.GIF, nil
	default:
		return 0, fmt.Errorf("unsupported output format: %s", format)
	}
}
