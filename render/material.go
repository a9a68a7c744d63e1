// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"

	"github.com/gogpu/globe"
)

var (
	//go:embed shaders/common.wgsl
	commonSource string
	//go:embed shaders/mesh.wgsl
	meshSource string
	//go:embed shaders/basic.wgsl
	basicSource string
	//go:embed shaders/surface.wgsl
	surfaceSource string
	//go:embed shaders/earth.wgsl
	earthSource string
	//go:embed shaders/atmosphere.wgsl
	atmosphereSource string
	//go:embed shaders/line.wgsl
	lineSource string
)

// Preset is the shading setup of one material. Presets are values and the
// table they come from is never modified.
type Preset struct {
	Name string
	// Source is the complete WGSL module with vs_main and fs_main.
	Source string
	// Layout is the vertex buffer layout the vertex stage reads.
	Layout   []gputypes.VertexBufferLayout
	Topology gputypes.PrimitiveTopology
	CullMode gputypes.CullMode
	Blend    bool
	// Order sorts draws: lower values are recorded first.
	Order int
}

// Pipeline names of the presets.
const (
	PresetBasic      = "basic"
	PresetSurface    = "surface"
	PresetEarth      = "earth"
	PresetAtmosphere = "atmosphere"
	PresetLine       = "line"
)

func meshPreset(name, fragment string, cull gputypes.CullMode, blend bool, order int) Preset {
	return Preset{
		Name:     name,
		Source:   commonSource + meshSource + fragment,
		Layout:   MeshVertexLayout(),
		Topology: gputypes.PrimitiveTopologyTriangleList,
		CullMode: cull,
		Blend:    blend,
		Order:    order,
	}
}

var presets = [...]Preset{
	globe.MaterialBasic:      meshPreset(PresetBasic, basicSource, gputypes.CullModeBack, false, 1),
	globe.MaterialSurface:    meshPreset(PresetSurface, surfaceSource, gputypes.CullModeNone, true, 2),
	globe.MaterialEarth:      meshPreset(PresetEarth, earthSource, gputypes.CullModeBack, false, 0),
	globe.MaterialAtmosphere: meshPreset(PresetAtmosphere, atmosphereSource, gputypes.CullModeFront, true, 4),
}

var linePreset = Preset{
	Name:     PresetLine,
	Source:   commonSource + lineSource,
	Layout:   LineVertexLayout(),
	Topology: gputypes.PrimitiveTopologyLineStrip,
	CullMode: gputypes.CullModeNone,
	Order:    3,
}

// MaterialPreset returns the preset for m. Unknown materials use the basic
// preset.
func MaterialPreset(m globe.Material) Preset {
	if int(m) < len(presets) {
		return presets[m]
	}
	return presets[globe.MaterialBasic]
}

// LinePreset returns the preset used for *globe.Line primitives.
func LinePreset() Preset {
	return linePreset
}

// Presets returns every preset in draw order.
func Presets() []Preset {
	out := []Preset{
		presets[globe.MaterialEarth],
		presets[globe.MaterialBasic],
		presets[globe.MaterialSurface],
		linePreset,
		presets[globe.MaterialAtmosphere],
	}
	return out
}

// SPIRV compiles the preset shader to SPIR-V words.
func (p Preset) SPIRV() ([]uint32, error) {
	code, err := naga.Compile(p.Source)
	if err != nil {
		return nil, fmt.Errorf("render: compile %s shader: %w", p.Name, err)
	}
	if len(code)%4 != 0 {
		return nil, fmt.Errorf("render: %s shader: SPIR-V length %d is not a multiple of 4", p.Name, len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = uint32(code[i*4]) |
			uint32(code[i*4+1])<<8 |
			uint32(code[i*4+2])<<16 |
			uint32(code[i*4+3])<<24
	}
	return words, nil
}
