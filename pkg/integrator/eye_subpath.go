package integrator

import (
	"math"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/material"
)

// buildEyeSubpath seeds the lens vertex through pixel coordinate (x, y) and
// walks toward the lights. When the walk lands on the front of an emitter it
// returns that MIS-weighted contribution and stops; the emitter vertex is not
// kept in the subpath.
func (b *BDPT) buildEyeSubpath(scene Scene, x, y float64, sampler core.Sampler, path *Subpath, stats *SampleStats) core.Vec3 {
	path.Reset()
	if path.Cap() == 0 {
		return core.Vec3{}
	}

	camera := scene.Camera()
	lens := path.next()
	*lens = lensVertex(camera, camera.PrimaryRayDirection(x, y))
	path.commit()

	for !path.Full() {
		prev := &path.Vertices()[path.Len()-1]

		si, hit := scene.Intersect(core.NewRay(prev.Position, prev.IncomingDirection), rayEpsilon, math.Inf(1))
		if !hit {
			return core.Vec3{}
		}

		if si.Material == nil {
			return core.Vec3{}
		}

		v := path.next()
		if !v.arriveFromEye(prev, si, si.T) {
			return core.Vec3{}
		}

		if v.Material.Kind() == material.KindLight {
			return b.emitterHit(scene, path, v)
		}
		path.commit()

		if path.Full() {
			return core.Vec3{}
		}

		res, ok := v.Material.Sample(v.OutgoingDirection, v.shading(), material.Radiance, sampler)
		if !ok || !v.scatterTowardLight(res) {
			return core.Vec3{}
		}
	}
	return core.Vec3{}
}

// emitterHit evaluates the s=0 strategy for an uncommitted emitter vertex v
// that follows the current eye subpath
func (b *BDPT) emitterHit(scene Scene, path *Subpath, v *PathVertex) core.Vec3 {
	emitter, ok := v.Material.(material.Emitter)
	if !ok || v.IsBackSide {
		return core.Vec3{}
	}

	// weigh over the subpath with the emitter temporarily appended
	n := path.Len()
	path.commit()
	weight := eyeHitWeight(path.Vertices(), scene.Lights().Area())
	path.truncate(n)

	return v.Throughput.MultiplyVec(emitter.Emission()).Multiply(weight)
}
