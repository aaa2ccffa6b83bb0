package canvas

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	fontsOnce sync.Once
	regular   *opentype.Font
	bold      *opentype.Font
	fontsErr  error
)

// parsed font data is read-only and shared; faces are not and live per canvas.
func loadFonts() error {
	fontsOnce.Do(func() {
		regular, fontsErr = opentype.Parse(goregular.TTF)
		if fontsErr != nil {
			fontsErr = fmt.Errorf("parse regular font: %w", fontsErr)
			return
		}
		bold, fontsErr = opentype.Parse(gobold.TTF)
		if fontsErr != nil {
			fontsErr = fmt.Errorf("parse bold font: %w", fontsErr)
		}
	})
	return fontsErr
}

type faceKey struct {
	size float64
	bold bool
}

type faceCache struct {
	faces map[faceKey]font.Face
}

func (fc *faceCache) face(size float64, isBold bool) font.Face {
	key := faceKey{size: size, bold: isBold}
	if f, ok := fc.faces[key]; ok {
		return f
	}
	f, err := newFace(size, isBold)
	if err != nil {
		// basicfont keeps text visible if the embedded fonts fail to load.
		f = basicfont.Face7x13
	}
	if fc.faces == nil {
		fc.faces = make(map[faceKey]font.Face)
	}
	fc.faces[key] = f
	return f
}

func (fc *faceCache) close() {
	for k, f := range fc.faces {
		if f != basicfont.Face7x13 {
			_ = f.Close()
		}
		delete(fc.faces, k)
	}
}

func newFace(size float64, isBold bool) (font.Face, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}
	src := regular
	if isBold {
		src = bold
	}
	// 72 DPI makes Size equal to pixel height.
	return opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
