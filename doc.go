// Package globe projects geographic features onto a 3D sphere.
//
// # Overview
//
// globe turns points, lines and polygons given in (longitude, latitude)
// degrees into plain triangle meshes, polylines and label billboards placed
// on a sphere. The results are handed to a SceneGraph collaborator, such as
// the GPU adapter in render/ or the software preview in preview/, and kept
// in a Registry for later lookup and hit-testing.
//
// # Quick Start
//
//	g, err := globe.New(globe.WithScene(scene))
//	if err != nil {
//	    return err
//	}
//	defer g.Close()
//
//	handles, err := g.AddGeoJSONData(ctx, data, globe.Style{})
//
// # Geometry
//
//   - Points become small spheres of the style size.
//   - Lines are densified along great circles, or linearly with
//     antimeridian correction, and drawn plain or as dashed, dotted or
//     arrow markers.
//   - Polygons are densified, ear-clipped with holes, refined by edge
//     splitting and projected slightly above the base sphere.
//
// # Coordinate System
//
// The sphere is centered at the origin with +Y through the north pole and
// longitude 0 on the equator at -X. See internal/sphere for the formulas.
//
// # Readiness
//
// New starts one-time initialization in the background. Builders wait for
// it, honoring their context, and fail with ErrNotReady if it failed.
package globe
