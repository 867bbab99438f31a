package geometry

import (
	"sort"

	"github.com/df07/go-bdpt/pkg/core"
)

// leafThreshold is the largest shape count stored in a single leaf
const leafThreshold = 8

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Shapes      []Shape // Shapes for leaf nodes (nil for internal nodes)
}

// BVH is the scene intersector: closest-hit queries over a set of shapes
type BVH struct {
	Root  *BVHNode
	count int
}

// NewBVH constructs a BVH from a slice of shapes. The input slice is not modified.
func NewBVH(shapes []Shape) *BVH {
	if len(shapes) == 0 {
		return &BVH{}
	}

	owned := make([]Shape, len(shapes))
	copy(owned, shapes)
	return &BVH{Root: buildBVH(owned), count: len(shapes)}
}

// buildBVH recursively splits shapes at the median along the longest axis
func buildBVH(shapes []Shape) *BVHNode {
	box := shapes[0].BoundingBox()
	for _, s := range shapes[1:] {
		box = box.Union(s.BoundingBox())
	}

	if len(shapes) <= leafThreshold {
		return &BVHNode{BoundingBox: box, Shapes: shapes}
	}

	axis := box.LongestAxis()
	sort.Slice(shapes, func(i, j int) bool {
		return shapes[i].BoundingBox().Center().Axis(axis) < shapes[j].BoundingBox().Center().Axis(axis)
	})

	mid := len(shapes) / 2
	return &BVHNode{
		BoundingBox: box,
		Left:        buildBVH(shapes[:mid]),
		Right:       buildBVH(shapes[mid:]),
	}
}

// Hit returns the closest intersection in (tMin, tMax)
func (bvh *BVH) Hit(ray core.Ray, tMin, tMax float64) (*SurfaceInteraction, bool) {
	if bvh.Root == nil {
		return nil, false
	}
	return hitNode(bvh.Root, ray, tMin, tMax)
}

func hitNode(node *BVHNode, ray core.Ray, tMin, tMax float64) (*SurfaceInteraction, bool) {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return nil, false
	}

	if node.Shapes != nil {
		var closest *SurfaceInteraction
		for _, shape := range node.Shapes {
			if si, ok := shape.Hit(ray, tMin, tMax); ok {
				closest = si
				tMax = si.T
			}
		}
		return closest, closest != nil
	}

	left, hitLeft := hitNode(node.Left, ray, tMin, tMax)
	if hitLeft {
		tMax = left.T
	}
	right, hitRight := hitNode(node.Right, ray, tMin, tMax)
	if hitRight {
		return right, true
	}
	return left, hitLeft
}

// BoundingBox returns the bounds of every shape in the hierarchy
func (bvh *BVH) BoundingBox() core.AABB {
	if bvh.Root == nil {
		return core.AABB{}
	}
	return bvh.Root.BoundingBox
}

// Len returns the number of shapes in the hierarchy
func (bvh *BVH) Len() int {
	return bvh.count
}
