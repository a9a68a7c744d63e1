package globe

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// LineType selects how a line is drawn.
type LineType uint8

const (
	// LineDefault leaves the choice to feature properties, then LinePlain.
	LineDefault LineType = iota
	LinePlain
	LineDashed
	LineDotted
	LineArrows
)

func (t LineType) String() string {
	switch t {
	case LinePlain:
		return "plain"
	case LineDashed:
		return "dashed"
	case LineDotted:
		return "dotted"
	case LineArrows:
		return "forward-arrows"
	}
	return "default"
}

// ParseLineType parses a linetype property value.
func ParseLineType(s string) (LineType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "solid", "":
		return LinePlain, true
	case "dashed":
		return LineDashed, true
	case "dotted":
		return LineDotted, true
	case "arrows", "forward-arrows":
		return LineArrows, true
	}
	return LineDefault, false
}

// Style is a partial set of style values supplied by the caller. Zero
// fields are unset and fall back to feature properties, then to the
// defaults of the geometry kind. A zero SurfaceOffset therefore cannot
// override a surfaceOffset property.
type Style struct {
	Color         color.Color
	Size          float64
	Label         string
	LineType      LineType
	Depth         float64
	SurfaceOffset float64
}

// StyleOptions is the resolved style a builder consumes.
type StyleOptions struct {
	Color         color.RGBA
	Size          float64
	Label         string
	LineType      LineType
	Depth         float64
	SurfaceOffset float64
}

// Property keys read from feature properties.
const (
	PropLabel         = "label"
	PropColor         = "color"
	PropSize          = "size"
	PropLineType      = "linetype"
	PropDepth         = "depth"
	PropSurfaceOffset = "surfaceOffset"
)

var (
	pointColor = color.RGBA{R: 0xff, G: 0xff, A: 0xff}
	lineColor  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// DefaultStyle returns the style a kind gets when nothing is specified.
func DefaultStyle(kind Kind) StyleOptions {
	s := StyleOptions{
		Color:    lineColor,
		Size:     1,
		LineType: LinePlain,
		Depth:    1,
	}
	if kind == KindPoint || kind == KindMultiPoint {
		s.Color = pointColor
		s.Size = 2
	}
	return s
}

// ResolveStyle merges override, then props, over the defaults for kind.
// Property values that cannot be parsed are logged and ignored.
func ResolveStyle(kind Kind, props map[string]any, override Style) StyleOptions {
	s := DefaultStyle(kind)

	if v, ok := props[PropLabel]; ok && v != nil {
		if str, ok := v.(string); ok {
			s.Label = str
		} else {
			s.Label = fmt.Sprint(v)
		}
	}
	if v, ok := props[PropColor]; ok && v != nil {
		if c, err := ParseColor(v); err == nil {
			s.Color = c
		} else {
			warnProperty(PropColor, v, err)
		}
	}
	if v, ok := props[PropSize]; ok {
		if f, ok := number(v); ok && f > 0 {
			s.Size = f
		} else {
			warnProperty(PropSize, v, nil)
		}
	}
	if v, ok := props[PropLineType]; ok {
		str, _ := v.(string)
		if lt, ok := ParseLineType(str); ok {
			s.LineType = lt
		} else {
			warnProperty(PropLineType, v, nil)
		}
	}
	if v, ok := props[PropDepth]; ok {
		if f, ok := number(v); ok && f > 0 {
			s.Depth = f
		} else {
			warnProperty(PropDepth, v, nil)
		}
	}
	if v, ok := props[PropSurfaceOffset]; ok {
		if f, ok := number(v); ok {
			s.SurfaceOffset = f
		} else {
			warnProperty(PropSurfaceOffset, v, nil)
		}
	}

	if override.Color != nil {
		s.Color = color.RGBAModel.Convert(override.Color).(color.RGBA)
	}
	if override.Size > 0 {
		s.Size = override.Size
	}
	if override.Label != "" {
		s.Label = override.Label
	}
	if override.LineType != LineDefault {
		s.LineType = override.LineType
	}
	if override.Depth > 0 {
		s.Depth = override.Depth
	}
	if override.SurfaceOffset != 0 {
		s.SurfaceOffset = override.SurfaceOffset
	}
	return s
}

func warnProperty(key string, v any, err error) {
	l := Logger()
	if err != nil {
		l.Warn("globe: ignoring style property", "key", key, "value", v, "err", err)
		return
	}
	l.Warn("globe: ignoring style property", "key", key, "value", v)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ParseColor converts a color property to RGBA. Numbers are read as
// 0xRRGGBB. Strings may be "#rgb", "#rrggbb", "0xrrggbb" or an SVG color
// name such as "steelblue".
func ParseColor(v any) (color.RGBA, error) {
	if f, ok := number(v); ok {
		if f < 0 || f > 0xffffff || f != float64(int64(f)) {
			return color.RGBA{}, fmt.Errorf("color %v out of range", v)
		}
		return hexColor(uint32(f)), nil
	}

	s, ok := v.(string)
	if !ok {
		return color.RGBA{}, fmt.Errorf("color of type %T", v)
	}
	s = strings.ToLower(strings.TrimSpace(s))

	var digits string
	switch {
	case strings.HasPrefix(s, "#"):
		digits = s[1:]
	case strings.HasPrefix(s, "0x"):
		digits = s[2:]
	default:
		if c, ok := colornames.Map[s]; ok {
			return c, nil
		}
		return color.RGBA{}, fmt.Errorf("unknown color name %q", s)
	}

	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	if len(digits) != 6 {
		return color.RGBA{}, fmt.Errorf("color %q must have 3 or 6 hex digits", s)
	}
	n, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return hexColor(uint32(n)), nil
}

func hexColor(n uint32) color.RGBA {
	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}
}
