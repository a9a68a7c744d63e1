package globe

import (
	"image/color"
	"unicode"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/golang/geo/r3"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/text/unicode/bidi"
)

// labelFace is the reference face used to size label billboards. Text is
// rasterized by the host; the engine only needs a stable aspect ratio.
var labelFace = basicfont.Face7x13

// newLabel sizes a billboard for text at anchor. The billboard is height
// world units tall and as wide as the text measures in the reference face.
func newLabel(text string, anchor r3.Vector, height float64, c color.RGBA) *Label {
	adv := font.MeasureString(labelFace, text)
	lineHeight := labelFace.Metrics().Height
	width := 0.0
	if lineHeight > 0 {
		width = height * float64(adv) / float64(lineHeight)
	}

	dir := labelDirection(text)
	align := 0.0
	if dir == di.DirectionRTL {
		align = 1
	}
	return &Label{
		Text:      text,
		Anchor:    anchor,
		Width:     width,
		Height:    height,
		Align:     align,
		Direction: dir,
		Script:    labelScript(text),
		Color:     c,
	}
}

// labelDirection returns the direction of the first bidi run of text.
func labelDirection(text string) di.Direction {
	if text == "" {
		return di.DirectionLTR
	}
	p := bidi.Paragraph{}
	if _, err := p.SetString(text, bidi.DefaultDirection(bidi.Neutral)); err != nil {
		return di.DirectionLTR
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return di.DirectionLTR
	}
	if run := ordering.Run(0); run.Direction() == bidi.RightToLeft {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// labelScript returns the script of the first letter of text.
func labelScript(text string) language.Script {
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsDigit(r) {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
