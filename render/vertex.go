// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/golang/geo/r3"

	"github.com/gogpu/globe"
)

// MeshVertexStride is the byte stride per mesh vertex.
// Layout per vertex:
//
//	position (vec3<f32>) = 12 bytes (location 0)
//	normal   (vec3<f32>) = 12 bytes (location 1)
//	uv       (vec2<f32>) = 8 bytes  (location 2)
//
// Total = 32 bytes per vertex.
const MeshVertexStride = 32

// LineVertexStride is the byte stride per line vertex, a lone vec3<f32>.
const LineVertexStride = 12

// Uniform sizes in bytes.
const (
	cameraUniformSize = 80 // mat4x4<f32> + vec4<f32>
	drawUniformSize   = 16 // vec4<f32>
)

// MeshVertexLayout returns the vertex buffer layout of mesh pipelines.
func MeshVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: MeshVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1}, // normal
				{Format: gputypes.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2}, // uv
			},
		},
	}
}

// LineVertexLayout returns the vertex buffer layout of the line pipeline.
func LineVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: LineVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}

// PackMesh expands m into a non-indexed triangle list in the
// MeshVertexLayout format and returns the bytes and the vertex count.
// Triangles that reference missing vertices are dropped.
func PackMesh(m *globe.Mesh) ([]byte, uint32) {
	n := len(m.Positions)
	buf := make([]byte, 0, len(m.Indices)*MeshVertexStride)
	var count uint32
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := int(m.Indices[i]), int(m.Indices[i+1]), int(m.Indices[i+2])
		if a >= n || b >= n || c >= n {
			continue
		}
		for _, k := range [3]int{a, b, c} {
			buf = appendVec3(buf, m.Positions[k])
			var normal r3.Vector
			if k < len(m.Normals) {
				normal = m.Normals[k]
			}
			buf = appendVec3(buf, normal)
			var u, v float64
			if k < len(m.UVs) {
				u, v = m.UVs[k].X, m.UVs[k].Y
			}
			buf = appendFloat32(buf, u)
			buf = appendFloat32(buf, v)
		}
		count += 3
	}
	return buf, count
}

// PackLine encodes l as a line strip in the LineVertexLayout format.
func PackLine(l *globe.Line) ([]byte, uint32) {
	buf := make([]byte, 0, len(l.Points)*LineVertexStride)
	for _, p := range l.Points {
		buf = appendVec3(buf, p)
	}
	return buf, uint32(len(l.Points))
}

// packCamera encodes the camera uniform: a column-major view-projection
// matrix followed by the eye position.
func packCamera(viewProj [16]float32, eye r3.Vector) []byte {
	buf := make([]byte, 0, cameraUniformSize)
	for _, f := range viewProj {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	buf = appendVec3(buf, eye)
	return appendFloat32(buf, 1)
}

// packColor encodes c as a straight-alpha vec4<f32>.
func packColor(c color.RGBA) []byte {
	buf := make([]byte, 0, drawUniformSize)
	for _, ch := range [4]uint8{c.R, c.G, c.B, c.A} {
		buf = appendFloat32(buf, float64(ch)/255)
	}
	return buf
}

func appendVec3(buf []byte, v r3.Vector) []byte {
	buf = appendFloat32(buf, v.X)
	buf = appendFloat32(buf, v.Y)
	return appendFloat32(buf, v.Z)
}

func appendFloat32(buf []byte, f float64) []byte {
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(f)))
}
