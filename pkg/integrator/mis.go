package integrator

import "math"

// emissionDensity is the projected solid angle density of cosine-weighted emission
const emissionDensity = 1 / math.Pi

// strategyAllowed reports whether a path with s light vertices and t eye
// vertices can be produced by some strategy. A pinhole lens can never be hit
// (t=0), and the bare emitter point cannot be traced to the lens (s=1, t=1).
func strategyAllowed(s, t int) bool {
	switch {
	case t <= 0:
		return false
	case t == 1:
		return s >= 2
	default:
		return s >= 0
	}
}

// reverseAreaDensity is the area density of vs[i] when generated by the
// opposite walk from vs[i+1]
func reverseAreaDensity(vs []PathVertex, i int) float64 {
	next := &vs[i+1]
	return next.ReverseDensity * next.GeometricFactor
}

// densityRatioSum walks one side of a connected path outward from its
// connection endpoint, the last entry of vs. It returns the sum of squared
// density ratios p_alt/p_current over every alternative strategy that moves
// the split point into this side.
//
// endRev and prevRev replace the reverse area densities of the endpoint and
// its predecessor, which depend on the vertex across the connection.
// pathLen is the vertex count of the whole path. eyeSide selects the
// direction of the split: on the eye side the lens is never given up.
func densityRatioSum(vs []PathVertex, endRev, prevRev float64, pathLen int, eyeSide bool) float64 {
	end := len(vs) - 1
	lowest := 0
	if eyeSide {
		lowest = 1
	}

	sum, ratio := 0.0, 1.0
	for i := end; i >= lowest; i-- {
		var rev float64
		switch {
		case i == end:
			rev = endRev
		case i == end-1:
			rev = prevRev
		default:
			rev = reverseAreaDensity(vs, i)
		}

		fwd := vs[i].AreaDensity
		if fwd <= 0 {
			break
		}
		ratio *= rev / fwd

		s, t := i, pathLen-i
		if eyeSide {
			s, t = pathLen-i, i
		}
		if !strategyAllowed(s, t) || vs[i].IsSpecular || (i > 0 && vs[i-1].IsSpecular) {
			continue
		}
		sum += ratio * ratio
	}
	return sum
}

// connectionWeight is the power-heuristic weight of a general s,t connection
func connectionWeight(light, eye []PathVertex, c connection) float64 {
	s, t := len(light), len(eye)
	lv, ev := &light[s-1], &eye[t-1]
	toEye := c.direction
	toLight := c.direction.Negate()

	// eye endpoint sampling toward the light endpoint, and on past it
	eyeTowardLight := ev.Material.PDF(ev.OutgoingDirection, toLight, ev.shading())
	eyeTowardPrev := ev.Material.PDF(toLight, ev.OutgoingDirection, ev.shading())

	lightTowardEye := emissionDensity
	lightTowardPrev := 0.0
	if s > 1 {
		lightTowardEye = lv.Material.PDF(lv.IncomingDirection, toEye, lv.shading())
		lightTowardPrev = lv.Material.PDF(toEye, lv.IncomingDirection, lv.shading())
	}

	sum := densityRatioSum(light, eyeTowardLight*c.geometric, lightTowardPrev*lv.GeometricFactor, s+t, false)
	sum += densityRatioSum(eye, lightTowardEye*c.geometric, eyeTowardPrev*ev.GeometricFactor, s+t, true)
	return 1 / (1 + sum)
}

// lightTracingWeight is the weight of connecting light[s-1] straight to the lens.
// sensorDensity is the lens density toward the light endpoint.
func lightTracingWeight(light []PathVertex, c connection, sensorDensity float64) float64 {
	s := len(light)
	lv := &light[s-1]
	toEye := c.direction
	lightTowardPrev := lv.Material.PDF(toEye, lv.IncomingDirection, lv.shading())

	sum := densityRatioSum(light, sensorDensity*c.geometric, lightTowardPrev*lv.GeometricFactor, s+1, false)
	return 1 / (1 + sum)
}

// eyeHitWeight is the weight of an eye walk that landed on the front of an
// emitter at eye[t-1]. The light-side densities are the ones a light walk
// would have used to start from that point.
func eyeHitWeight(eye []PathVertex, lightArea float64) float64 {
	t := len(eye)
	hit := &eye[t-1]
	sum := densityRatioSum(eye, 1/lightArea, emissionDensity*hit.GeometricFactor, t, true)
	return 1 / (1 + sum)
}
