package geometry

import (
	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/material"
)

// Shape interface for objects that can be hit by rays
type Shape interface {
	Hit(ray core.Ray, tMin, tMax float64) (*SurfaceInteraction, bool)
	BoundingBox() core.AABB
}

// SurfaceInteraction contains information about a ray-surface intersection
type SurfaceInteraction struct {
	Point           core.Vec3         // Point of intersection
	T               float64           // Distance along a unit-length ray direction
	GeometricNormal core.Vec3         // Flipped to face the ray origin
	ShadingNormal   core.Vec3         // Interpolated normal, on the same side as GeometricNormal
	FrontFace       bool              // Ray arrived on the side the outward normal points to
	Material        material.Material // Material of the hit surface
	Shape           Shape             // The primitive that was hit
}

// setFaceNormals orients the geometric and shading normals toward the ray origin
func (si *SurfaceInteraction) setFaceNormals(ray core.Ray, outward, shading core.Vec3) {
	si.FrontFace = ray.Direction.Dot(outward) < 0
	si.GeometricNormal = outward
	si.ShadingNormal = shading
	if !si.FrontFace {
		si.GeometricNormal = outward.Negate()
		si.ShadingNormal = shading.Negate()
	}
}
