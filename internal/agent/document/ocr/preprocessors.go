package ocr

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/disintegration/imaging"
)

// Preprocessor transforms a rendered page before recognition.
type Preprocessor interface {
	Process(img image.Image) (image.Image, error)
}

// NewPreprocessors builds a chain from step names, applied in the given order.
func NewPreprocessors(names []string) ([]Preprocessor, error) {
	chain := make([]Preprocessor, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "grayscale":
			chain = append(chain, NewGrayscaleProcessor())
		case "denoise":
			chain = append(chain, NewDenoiseProcessor(0.5))
		case "contrast":
			chain = append(chain, NewContrastProcessor(20))
		case "sharpen":
			chain = append(chain, NewSharpenProcessor(0.5))
		case "binarize":
			chain = append(chain, NewBinarizationProcessor(128))
		case "adaptive-threshold":
			chain = append(chain, NewAdaptiveThresholdProcessor(11, 2))
		default:
			return nil, fmt.Errorf("unknown preprocessing step: %q", name)
		}
	}
	return chain, nil
}

type GrayscaleProcessor struct{}

func NewGrayscaleProcessor() *GrayscaleProcessor {
	return &GrayscaleProcessor{}
}

func (p *GrayscaleProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Grayscale(img), nil
}

// DenoiseProcessor applies a gaussian blur.
type DenoiseProcessor struct {
	strength float64
}

func NewDenoiseProcessor(strength float64) *DenoiseProcessor {
	return &DenoiseProcessor{strength: strength}
}

func (p *DenoiseProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Blur(img, p.strength), nil
}

type ContrastProcessor struct {
	amount float64
}

func NewContrastProcessor(amount float64) *ContrastProcessor {
	return &ContrastProcessor{amount: amount}
}

func (p *ContrastProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.AdjustContrast(img, p.amount), nil
}

type SharpenProcessor struct {
	strength float64
}

func NewSharpenProcessor(strength float64) *SharpenProcessor {
	return &SharpenProcessor{strength: strength}
}

func (p *SharpenProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Sharpen(img, p.strength), nil
}

// BinarizationProcessor maps every pixel to black or white around a global threshold.
type BinarizationProcessor struct {
	threshold uint8
}

func NewBinarizationProcessor(threshold uint8) *BinarizationProcessor {
	return &BinarizationProcessor{threshold: threshold}
}

func (p *BinarizationProcessor) Process(img image.Image) (image.Image, error) {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	binary := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray.NRGBAAt(x, y).R > p.threshold {
				binary.SetGray(x, y, color.Gray{Y: 255})
			} else {
				binary.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return binary, nil
}

// AdaptiveThresholdProcessor compares each pixel with the mean of its block.
// It uses a summed-area table so the cost does not grow with the block size.
type AdaptiveThresholdProcessor struct {
	blockSize int
	constant  float64
}

func NewAdaptiveThresholdProcessor(blockSize int, constant float64) *AdaptiveThresholdProcessor {
	return &AdaptiveThresholdProcessor{
		blockSize: blockSize,
		constant:  constant,
	}
}

func (p *AdaptiveThresholdProcessor) Process(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	result := image.NewGray(bounds)
	draw.Draw(result, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	// integral[(y)*(w+1)+x] is the sum of pixels above and left of (x, y).
	integral := make([]int64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(gray.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y).R)
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + rowSum
		}
	}

	half := p.blockSize / 2
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-half), min(h, y+half+1)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-half), min(w, x+half+1)
			sum := integral[y1*(w+1)+x1] - integral[y0*(w+1)+x1] - integral[y1*(w+1)+x0] + integral[y0*(w+1)+x0]
			mean := float64(sum) / float64((x1-x0)*(y1-y0))

			pixel := float64(gray.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y).R)
			if pixel < mean-p.constant {
				result.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: 0})
			}
		}
	}
	return result, nil
}
