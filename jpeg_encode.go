package avacadovnc

import (
	"bytes"
	"image"
	"image/jpeg"
)

// encodeJPEGBytes is Tight's JPEG collaborator: it wraps a tightly packed
// RGB888 byte slice in a stdlib image.NRGBA and hands it to image/jpeg,
// the same package the decode side (handleJPEG in encoding_tight.go)
// already depends on.
func encodeJPEGBytes(rgb []byte, width, height, quality int) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		o := i * 3
		po := i * 4
		img.Pix[po] = rgb[o]
		img.Pix[po+1] = rgb[o+1]
		img.Pix[po+2] = rgb[o+2]
		img.Pix[po+3] = 0xFF
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
