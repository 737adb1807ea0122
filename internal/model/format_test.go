package model

import (
	"errors"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		want        Format
	}{
		{"png", "a.png", "image/png", FormatPNG},
		{"jpeg content type", "a.jpeg", "image/jpeg", FormatJPEG},
		{"jxl extension wins", "scan.jxl", "application/octet-stream", FormatJXL},
		{"jxl without content type", "scan.JXL", "", FormatJXL},
		{"webp with params", "a.webp", "image/webp; charset=binary", FormatWebP},
		{"avif", "a.avif", "image/avif", FormatAVIF},
		{"unknown passes through", "a.gif", "image/gif", "gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.filename, tt.contentType); got != tt.want {
				t.Fatalf("DetectFormat(%q, %q)=%q, want %q", tt.filename, tt.contentType, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"webp": FormatWebP, " JPG ": FormatJPEG, "Avif": FormatAVIF} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q)=%q, %v, want %q", in, got, err, want)
		}
	}

	if _, err := ParseFormat("gif"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("ParseFormat(gif) err=%v, want %v", err, ErrInvalidFormat)
	}
}

func TestOptionsFor(t *testing.T) {
	tests := []struct {
		format  Format
		quality int
		want    int
	}{
		{FormatWebP, 0, 75},
		{FormatAVIF, 0, 50},
		{FormatJPEG, 90, 90},
		{FormatJXL, 150, 100},
		{FormatPNG, 0, 0},
	}

	for _, tt := range tests {
		if got := OptionsFor(tt.format, tt.quality).Quality; got != tt.want {
			t.Errorf("OptionsFor(%s, %d)=%d, want %d", tt.format, tt.quality, got, tt.want)
		}
	}
}

func TestImage_ResultName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{filename: "holiday.final.png", want: "holiday.webp"},
		{filename: "scan", want: "scan.webp"},
		{filename: ".hidden.png", want: ".webp"},
	}

	for _, tt := range tests {
		img := Image{Filename: tt.filename, OutputType: FormatWebP}
		if got := img.ResultName(); got != tt.want {
			t.Fatalf("ResultName(%q)=%q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	for s, want := range map[Status]bool{
		StatusPending:    false,
		StatusQueued:     false,
		StatusProcessing: false,
		StatusComplete:   true,
		StatusError:      true,
	} {
		if s.Terminal() != want {
			t.Errorf("%s.Terminal()=%v, want %v", s, !want, want)
		}
	}
}
