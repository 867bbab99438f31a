package integrator

import (
	"math"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/material"
)

// rayEpsilon offsets secondary rays from the surface they leave
const rayEpsilon = 1e-4

// buildLightSubpath seeds vertex 0 on the light and walks toward the eye.
//
// The walk ends on a miss, on back-facing incidence, on absorption, on
// reaching an emitter or when the subpath is full. Vertices committed before
// the walk ends stay valid for connection.
func (b *BDPT) buildLightSubpath(scene Scene, sampler core.Sampler, path *Subpath, stats *SampleStats) {
	path.Reset()
	set := scene.Lights()
	if set == nil || path.Cap() == 0 {
		return
	}

	u := sampler.Get2D()
	point := set.SampleSurfacePoint(u.X, u.Y)
	seed := path.next()
	*seed = lightSeedVertex(point, set.Area())

	direction, cosTheta := core.SampleCosineHemisphere(core.NewFrame(point.Normal), sampler.Get2D())
	if cosTheta <= 0 {
		path.commit()
		return
	}
	seed.emitToward(direction, cosTheta)
	path.commit()

	for !path.Full() {
		prev := &path.Vertices()[path.Len()-1]

		si, hit := scene.Intersect(core.NewRay(prev.Position, prev.OutgoingDirection), rayEpsilon, math.Inf(1))
		if !hit {
			return
		}

		if si.Material == nil {
			return
		}
		if si.Material.Kind() == material.KindLight {
			stats.LightRehits++
			return
		}

		v := path.next()
		if !v.arriveFromLight(prev, si, si.T) {
			return
		}
		path.commit()

		if path.Full() {
			return
		}

		res, ok := v.Material.Sample(v.IncomingDirection, v.shading(), material.Importance, sampler)
		if !ok || !v.scatterTowardEye(res) {
			return
		}
	}
}
