package services

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image/color"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var tilePalette = []color.NRGBA{
	{R: 0x1F, G: 0x3A, B: 0x5F, A: 0xFF},
	{R: 0x3D, G: 0x5A, B: 0x80, A: 0xFF},
	{R: 0x2A, G: 0x9D, B: 0x8F, A: 0xFF},
	{R: 0xE7, G: 0x6F, B: 0x51, A: 0xFF},
	{R: 0xF4, G: 0xA2, B: 0x61, A: 0xFF},
	{R: 0x6D, G: 0x59, B: 0x7A, A: 0xFF},
	{R: 0xB5, G: 0x65, B: 0x76, A: 0xFF},
	{R: 0x35, G: 0x5C, B: 0x7D, A: 0xFF},
	{R: 0x26, G: 0x46, B: 0x53, A: 0xFF},
	{R: 0x8A, G: 0xB1, B: 0x7D, A: 0xFF},
}

// TileRenderer draws initials tiles used as placeholder product images and
// default avatars.
type TileRenderer struct {
	font *truetype.Font
}

func NewTileRenderer() (*TileRenderer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse tile font: %w", err)
	}
	return &TileRenderer{font: f}, nil
}

func (r *TileRenderer) face(size float64) font.Face {
	return truetype.NewFace(r.font, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// Render returns a PNG tile of size x size. The background colour is
// picked from label so the same name always gets the same tile.
func (r *TileRenderer) Render(label string, size int, round bool) ([]byte, error) {
	if size < 16 {
		size = 16
	}
	s := float64(size)
	dc := gg.NewContext(size, size)
	if round {
		dc.DrawCircle(s/2, s/2, s/2)
		dc.Clip()
	}
	dc.SetColor(TileColor(label))
	dc.DrawRectangle(0, 0, s, s)
	dc.Fill()

	dc.SetFontFace(r.face(s * 0.4))
	dc.SetColor(color.White)
	dc.DrawStringAnchored(Initials(label), s/2, s/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode tile: %w", err)
	}
	return buf.Bytes(), nil
}

func TileColor(label string) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(label))))
	return tilePalette[int(h.Sum32()%uint32(len(tilePalette)))]
}

// Initials takes the first letter or digit of up to two words.
func Initials(label string) string {
	var out []rune
	for _, word := range strings.Fields(label) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				out = append(out, unicode.ToUpper(r))
				break
			}
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}
