package stamper

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"docuflow/internal/domain/entity"
)

// Stamper embeds a signer's reference image into a document body at a stored
// placement. The transform is pure: input buffers are never mutated, so a
// caller can discard the result on any later failure without corrupting
// stored state.
type Stamper interface {
	Stamp(pdf, signature []byte, placement entity.Placement) ([]byte, error)
}

type pdfStamper struct {
	logger *zap.Logger
}

func NewStamper(logger *zap.Logger) Stamper {
	return &pdfStamper{logger: logger}
}

// DetectFormat sniffs the leading bytes of a signature image. Only PNG and
// JPEG rasters are accepted.
func DetectFormat(content []byte) (string, error) {
	switch {
	case len(content) >= 4 && bytes.Equal(content[:4], []byte{0x89, 'P', 'N', 'G'}):
		return "png", nil
	case len(content) >= 3 && bytes.Equal(content[:3], []byte{0xFF, 0xD8, 0xFF}):
		return "jpeg", nil
	}
	return "", entity.ErrUnsupportedImageFormat
}

func (s *pdfStamper) Stamp(pdf, signature []byte, placement entity.Placement) ([]byte, error) {
	format, err := DetectFormat(signature)
	if err != nil {
		return nil, err
	}

	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(signature))
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable %s image", entity.ErrUnsupportedImageFormat, format)
	}
	if imgCfg.Width <= 0 {
		return nil, fmt.Errorf("%w: zero-width %s image", entity.ErrUnsupportedImageFormat, format)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pageCount, err := api.PageCount(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if placement.Page < 1 || placement.Page > pageCount {
		return nil, fmt.Errorf("%w: page %d of %d", entity.ErrInvalidPlacement, placement.Page, pageCount)
	}

	// Anchor bottom-left, offset to the stored coordinate, scale the image
	// down to the recorded stamp width.
	scale := placement.Width / float64(imgCfg.Width)
	desc := fmt.Sprintf("pos:bl, off:%.2f %.2f, scale:%.4f abs, rot:0", placement.X, placement.Y, scale)

	wm, err := api.ImageWatermarkForReader(bytes.NewReader(signature), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to build stamp: %w", err)
	}

	var out bytes.Buffer
	pages := []string{strconv.Itoa(placement.Page)}
	if err := api.AddWatermarks(bytes.NewReader(pdf), &out, pages, wm, conf); err != nil {
		return nil, fmt.Errorf("failed to stamp document: %w", err)
	}

	s.logger.Debug("Stamped document page",
		zap.Int("page", placement.Page),
		zap.Float64("x", placement.X),
		zap.Float64("y", placement.Y),
		zap.String("image_format", format),
	)

	return out.Bytes(), nil
}
