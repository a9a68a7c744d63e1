// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package preview

import (
	"github.com/golang/geo/r3"

	"github.com/gogpu/globe/internal/sphere"
)

// camera is an orthonormal view basis. Forward points from the globe
// center toward the viewer, so camera-space Z grows toward the eye.
type camera struct {
	right, up, forward r3.Vector
}

func newCamera(lng, lat float64) camera {
	forward := sphere.Project(lng, lat, 1)
	right := r3.Vector{Y: 1}.Cross(forward)
	if right.Norm() < 1e-9 {
		// Looking straight down a pole.
		right = r3.Vector{Z: 1}
	}
	right = right.Normalize()
	return camera{
		right:   right,
		up:      forward.Cross(right).Normalize(),
		forward: forward,
	}
}

// view maps a world point into camera space.
func (c camera) view(p r3.Vector) r3.Vector {
	return r3.Vector{X: p.Dot(c.right), Y: p.Dot(c.up), Z: p.Dot(c.forward)}
}
