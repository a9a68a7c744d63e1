// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render uploads globe primitive trees to a WebGPU device.
//
// An Uploader is a globe.SceneGraph: pass it to globe.WithScene and every
// built feature is packed into vertex buffers as it is attached. Meshes
// are expanded to triangle lists, lines are drawn as line strips, and each
// material maps to a Preset with its own WGSL shader and pipeline state.
//
// Basic usage with a host window:
//
//	up, err := render.NewUploaderFromProvider(provider)
//	if err != nil {
//	    return err
//	}
//	defer up.Close()
//
//	g, err := globe.New(globe.WithScene(up))
//	// ...
//	up.SetCamera(viewProj, eye)
//	up.Record(pass)
//
// Labels are not uploaded. Hosts draw them with their own text renderer,
// for example gg, at the label anchors.
package render
