// Package testsupport provides fixtures shared by package tests.
package testsupport

import (
	"bytes"
	"image"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// Image draws a width x height gradient with a circle in the middle.
func Image(width, height int) image.Image {
	dc := gg.NewContext(width, height)

	for x := 0; x < width; x++ {
		r := float64(x) / float64(width)
		dc.SetRGB(r, 0.3, 1-r)
		dc.DrawLine(float64(x), 0, float64(x), float64(height))
		dc.Stroke()
	}

	dc.SetRGBA(1, 1, 1, 0.8)
	radius := float64(min(width, height)) / 3
	dc.DrawCircle(float64(width)/2, float64(height)/2, radius)
	dc.Fill()

	return dc.Image()
}

// PNG returns Image(width, height) encoded as PNG.
func PNG(t testing.TB, width, height int) []byte {
	t.Helper()
	return encode(t, Image(width, height), imaging.PNG)
}

// JPEG returns Image(width, height) encoded as JPEG.
func JPEG(t testing.TB, width, height int) []byte {
	t.Helper()
	return encode(t, Image(width, height), imaging.JPEG)
}

func encode(t testing.TB, img image.Image, format imaging.Format) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, format); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	return buf.Bytes()
}
