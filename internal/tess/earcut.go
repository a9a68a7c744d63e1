package tess

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
)

// node is a vertex of a circular doubly linked polygon outline.
type node struct {
	i          int
	x, y       float64
	prev, next *node
	steiner    bool

	// z-order curve position and neighbours, set when the outline is hashed.
	z            uint32
	prevZ, nextZ *node
}

// hashThreshold is the vertex count above which ear tests look up nearby
// vertices along a z-order curve instead of scanning the whole outline.
const hashThreshold = 80

// curve maps planar points onto a 32767x32767 z-order grid.
type curve struct {
	minX, minY float64
	invSize    float64
}

// Triangulate ear-clips the polygon outer with holes and returns triangle
// indices into the concatenation of outer and every hole, in that order.
// Collinear and duplicate vertices may be left unreferenced.
func Triangulate(outer []r2.Point, holes [][]r2.Point) []uint32 {
	pts := make([]r2.Point, 0, len(outer))
	pts = append(pts, outer...)
	holeStarts := make([]int, 0, len(holes))
	for _, h := range holes {
		holeStarts = append(holeStarts, len(pts))
		pts = append(pts, h...)
	}

	outerNode := linkedList(pts, 0, len(outer), true)
	if outerNode == nil || outerNode.next == outerNode.prev {
		return nil
	}
	if len(holes) > 0 {
		outerNode = eliminateHoles(pts, holeStarts, outerNode)
	}

	var h *curve
	if len(pts) > hashThreshold {
		h = newCurve(outer)
	}

	var tris []uint32
	earcutLinked(outerNode, &tris, h, 0)
	return tris
}

func newCurve(outer []r2.Point) *curve {
	minX, minY := outer[0].X, outer[0].Y
	maxX, maxY := minX, minY
	for _, p := range outer[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	size := math.Max(maxX-minX, maxY-minY)
	if size == 0 {
		return nil
	}
	return &curve{minX: minX, minY: minY, invSize: 32767 / size}
}

func linkedList(pts []r2.Point, start, end int, clockwise bool) *node {
	var last *node
	if clockwise == (signedArea(pts, start, end) > 0) {
		for i := start; i < end; i++ {
			last = insertNode(i, pts[i], last)
		}
	} else {
		for i := end - 1; i >= start; i-- {
			last = insertNode(i, pts[i], last)
		}
	}
	if last != nil && equals(last, last.next) {
		removeNode(last)
		last = last.next
	}
	return last
}

func signedArea(pts []r2.Point, start, end int) float64 {
	var sum float64
	j := end - 1
	for i := start; i < end; i++ {
		sum += (pts[j].X - pts[i].X) * (pts[i].Y + pts[j].Y)
		j = i
	}
	return sum
}

// filterPoints removes duplicate and collinear vertices between start and end.
func filterPoints(start, end *node) *node {
	if start == nil {
		return start
	}
	if end == nil {
		end = start
	}
	p := start
	for {
		again := false
		if !p.steiner && (equals(p, p.next) || area(p.prev, p, p.next) == 0) {
			removeNode(p)
			p = p.prev
			end = p
			if p == p.next {
				break
			}
			again = true
		} else {
			p = p.next
		}
		if !again && p == end {
			break
		}
	}
	return end
}

func earcutLinked(ear *node, tris *[]uint32, h *curve, pass int) {
	if ear == nil {
		return
	}
	if pass == 0 && h != nil {
		h.index(ear)
	}
	stop := ear
	for ear.prev != ear.next {
		prev, next := ear.prev, ear.next
		if (h != nil && h.isEar(ear)) || (h == nil && isEar(ear)) {
			*tris = append(*tris, uint32(prev.i), uint32(ear.i), uint32(next.i))
			removeNode(ear)
			ear = next.next
			stop = next.next
			continue
		}
		ear = next
		if ear == stop {
			switch pass {
			case 0:
				earcutLinked(filterPoints(ear, nil), tris, h, 1)
			case 1:
				ear = cureLocalIntersections(filterPoints(ear, nil), tris)
				earcutLinked(ear, tris, h, 2)
			case 2:
				splitEarcut(ear, tris, h)
			}
			break
		}
	}
}

func isEar(ear *node) bool {
	a, b, c := ear.prev, ear, ear.next
	if area(a, b, c) >= 0 {
		return false
	}
	x0 := math.Min(a.x, math.Min(b.x, c.x))
	y0 := math.Min(a.y, math.Min(b.y, c.y))
	x1 := math.Max(a.x, math.Max(b.x, c.x))
	y1 := math.Max(a.y, math.Max(b.y, c.y))

	for p := c.next; p != a; p = p.next {
		if p.x >= x0 && p.x <= x1 && p.y >= y0 && p.y <= y1 &&
			pointInTriangle(a.x, a.y, b.x, b.y, c.x, c.y, p.x, p.y) &&
			area(p.prev, p, p.next) >= 0 {
			return false
		}
	}
	return true
}

// isEar is the hashed variant of the package level isEar. It only visits
// vertices whose z-order lies within the ear's bounding box.
func (h *curve) isEar(ear *node) bool {
	a, b, c := ear.prev, ear, ear.next
	if area(a, b, c) >= 0 {
		return false
	}
	x0 := math.Min(a.x, math.Min(b.x, c.x))
	y0 := math.Min(a.y, math.Min(b.y, c.y))
	x1 := math.Max(a.x, math.Max(b.x, c.x))
	y1 := math.Max(a.y, math.Max(b.y, c.y))
	minZ, maxZ := h.z(x0, y0), h.z(x1, y1)

	blocks := func(p *node) bool {
		return p != a && p != c &&
			p.x >= x0 && p.x <= x1 && p.y >= y0 && p.y <= y1 &&
			pointInTriangle(a.x, a.y, b.x, b.y, c.x, c.y, p.x, p.y) &&
			area(p.prev, p, p.next) >= 0
	}

	p, n := ear.prevZ, ear.nextZ
	for p != nil && p.z >= minZ && n != nil && n.z <= maxZ {
		if blocks(p) || blocks(n) {
			return false
		}
		p, n = p.prevZ, n.nextZ
	}
	for ; p != nil && p.z >= minZ; p = p.prevZ {
		if blocks(p) {
			return false
		}
	}
	for ; n != nil && n.z <= maxZ; n = n.nextZ {
		if blocks(n) {
			return false
		}
	}
	return true
}

// z interleaves the grid coordinates of (x, y) into a z-order value.
func (h *curve) z(x, y float64) uint32 {
	return spread(uint32(int32((x-h.minX)*h.invSize))) |
		spread(uint32(int32((y-h.minY)*h.invSize)))<<1
}

// spread moves the low 16 bits of v to the even bit positions.
func spread(v uint32) uint32 {
	v = (v | v<<8) & 0x00FF00FF
	v = (v | v<<4) & 0x0F0F0F0F
	v = (v | v<<2) & 0x33333333
	return (v | v<<1) & 0x55555555
}

// index assigns z values to every vertex of the outline at start and links
// them into a list sorted by z.
func (h *curve) index(start *node) {
	p := start
	for {
		if p.z == 0 {
			p.z = h.z(p.x, p.y)
		}
		p.prevZ = p.prev
		p.nextZ = p.next
		p = p.next
		if p == start {
			break
		}
	}
	p.prevZ.nextZ = nil
	p.prevZ = nil
	sortLinked(p)
}

// sortLinked merge sorts the z list starting at list and returns its new
// head.
func sortLinked(list *node) *node {
	for size := 1; ; size *= 2 {
		p := list
		list = nil
		var tail *node
		merges := 0

		for p != nil {
			merges++
			q := p
			pSize := 0
			for range size {
				pSize++
				q = q.nextZ
				if q == nil {
					break
				}
			}
			qSize := size

			for pSize > 0 || (qSize > 0 && q != nil) {
				var e *node
				if pSize != 0 && (qSize == 0 || q == nil || p.z <= q.z) {
					e = p
					p = p.nextZ
					pSize--
				} else {
					e = q
					q = q.nextZ
					qSize--
				}
				if tail != nil {
					tail.nextZ = e
				} else {
					list = e
				}
				e.prevZ = tail
				tail = e
			}
			p = q
		}
		tail.nextZ = nil
		if merges <= 1 {
			return list
		}
	}
}

func cureLocalIntersections(start *node, tris *[]uint32) *node {
	p := start
	for {
		a, b := p.prev, p.next.next
		if !equals(a, b) && intersects(a, p, p.next, b) && locallyInside(a, b) && locallyInside(b, a) {
			*tris = append(*tris, uint32(a.i), uint32(p.i), uint32(b.i))
			removeNode(p)
			removeNode(p.next)
			p = b
			start = b
		}
		p = p.next
		if p == start {
			break
		}
	}
	return filterPoints(p, nil)
}

// splitEarcut splits the outline along a valid diagonal and triangulates
// both halves.
func splitEarcut(start *node, tris *[]uint32, h *curve) {
	a := start
	for {
		for b := a.next.next; b != a.prev; b = b.next {
			if a.i != b.i && isValidDiagonal(a, b) {
				c := splitPolygon(a, b)
				a = filterPoints(a, a.next)
				c = filterPoints(c, c.next)
				earcutLinked(a, tris, h, 0)
				earcutLinked(c, tris, h, 0)
				return
			}
		}
		a = a.next
		if a == start {
			return
		}
	}
}

func eliminateHoles(pts []r2.Point, holeStarts []int, outerNode *node) *node {
	queue := make([]*node, 0, len(holeStarts))
	for i, start := range holeStarts {
		end := len(pts)
		if i+1 < len(holeStarts) {
			end = holeStarts[i+1]
		}
		list := linkedList(pts, start, end, false)
		if list == nil {
			continue
		}
		if list == list.next {
			list.steiner = true
		}
		queue = append(queue, leftmost(list))
	}
	sort.SliceStable(queue, func(i, j int) bool { return queue[i].x < queue[j].x })

	for _, h := range queue {
		outerNode = eliminateHole(h, outerNode)
	}
	return outerNode
}

func eliminateHole(hole, outerNode *node) *node {
	bridge := findHoleBridge(hole, outerNode)
	if bridge == nil {
		return outerNode
	}
	reverse := splitPolygon(bridge, hole)
	filterPoints(reverse, reverse.next)
	return filterPoints(bridge, bridge.next)
}

// findHoleBridge finds an outline vertex visible from the leftmost vertex
// of a hole.
func findHoleBridge(hole, outerNode *node) *node {
	p := outerNode
	hx, hy := hole.x, hole.y
	qx := math.Inf(-1)
	var m *node

	for {
		if hy <= p.y && hy >= p.next.y && p.next.y != p.y {
			x := p.x + (hy-p.y)*(p.next.x-p.x)/(p.next.y-p.y)
			if x <= hx && x > qx {
				qx = x
				m = p.next
				if p.x < p.next.x {
					m = p
				}
				if x == hx {
					return m
				}
			}
		}
		p = p.next
		if p == outerNode {
			break
		}
	}
	if m == nil {
		return nil
	}

	stop := m
	mx, my := m.x, m.y
	tanMin := math.Inf(1)
	p = m
	for {
		ax, cx := qx, hx
		if hy < my {
			ax, cx = hx, qx
		}
		if hx >= p.x && p.x >= mx && hx != p.x && pointInTriangle(ax, hy, mx, my, cx, hy, p.x, p.y) {
			tan := math.Abs(hy-p.y) / (hx - p.x)
			if locallyInside(p, hole) &&
				(tan < tanMin || (tan == tanMin && (p.x > m.x || (p.x == m.x && sectorContainsSector(m, p))))) {
				m = p
				tanMin = tan
			}
		}
		p = p.next
		if p == stop {
			break
		}
	}
	return m
}

func sectorContainsSector(m, p *node) bool {
	return area(m.prev, m, p.prev) < 0 && area(p.next, m, m.next) < 0
}

func leftmost(start *node) *node {
	p, left := start, start
	for {
		if p.x < left.x || (p.x == left.x && p.y < left.y) {
			left = p
		}
		p = p.next
		if p == start {
			return left
		}
	}
}

func isValidDiagonal(a, b *node) bool {
	if a.next.i == b.i || a.prev.i == b.i || intersectsPolygon(a, b) {
		return false
	}
	if locallyInside(a, b) && locallyInside(b, a) && middleInside(a, b) &&
		(area(a.prev, a, b.prev) != 0 || area(a, b.prev, b) != 0) {
		return true
	}
	return equals(a, b) && area(a.prev, a, a.next) > 0 && area(b.prev, b, b.next) > 0
}

func area(p, q, r *node) float64 {
	return (q.y-p.y)*(r.x-q.x) - (q.x-p.x)*(r.y-q.y)
}

func equals(a, b *node) bool {
	return a.x == b.x && a.y == b.y
}

func pointInTriangle(ax, ay, bx, by, cx, cy, px, py float64) bool {
	return (cx-px)*(ay-py) >= (ax-px)*(cy-py) &&
		(ax-px)*(by-py) >= (bx-px)*(ay-py) &&
		(bx-px)*(cy-py) >= (cx-px)*(by-py)
}

func intersects(p1, q1, p2, q2 *node) bool {
	o1 := sign(area(p1, q1, p2))
	o2 := sign(area(p1, q1, q2))
	o3 := sign(area(p2, q2, p1))
	o4 := sign(area(p2, q2, q1))

	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if o2 == 0 && onSegment(p1, q2, q1) {
		return true
	}
	if o3 == 0 && onSegment(p2, p1, q2) {
		return true
	}
	return o4 == 0 && onSegment(p2, q1, q2)
}

// onSegment reports whether q lies within the bounding box of segment pr.
func onSegment(p, q, r *node) bool {
	return q.x <= math.Max(p.x, r.x) && q.x >= math.Min(p.x, r.x) &&
		q.y <= math.Max(p.y, r.y) && q.y >= math.Min(p.y, r.y)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func intersectsPolygon(a, b *node) bool {
	p := a
	for {
		if p.i != a.i && p.next.i != a.i && p.i != b.i && p.next.i != b.i && intersects(p, p.next, a, b) {
			return true
		}
		p = p.next
		if p == a {
			return false
		}
	}
}

func locallyInside(a, b *node) bool {
	if area(a.prev, a, a.next) < 0 {
		return area(a, b, a.next) >= 0 && area(a, a.prev, b) >= 0
	}
	return area(a, b, a.prev) < 0 || area(a, a.next, b) < 0
}

func middleInside(a, b *node) bool {
	p := a
	inside := false
	px, py := (a.x+b.x)/2, (a.y+b.y)/2
	for {
		if (p.y > py) != (p.next.y > py) && p.next.y != p.y &&
			px < (p.next.x-p.x)*(py-p.y)/(p.next.y-p.y)+p.x {
			inside = !inside
		}
		p = p.next
		if p == a {
			return inside
		}
	}
}

// splitPolygon links a and b with a bridge, duplicating both vertices, and
// returns the start of the second outline.
func splitPolygon(a, b *node) *node {
	a2 := &node{i: a.i, x: a.x, y: a.y}
	b2 := &node{i: b.i, x: b.x, y: b.y}
	an, bp := a.next, b.prev

	a.next = b
	b.prev = a

	a2.next = an
	an.prev = a2

	b2.next = a2
	a2.prev = b2

	bp.next = b2
	b2.prev = bp

	return b2
}

func insertNode(i int, pt r2.Point, last *node) *node {
	p := &node{i: i, x: pt.X, y: pt.Y}
	if last == nil {
		p.prev = p
		p.next = p
	} else {
		p.next = last.next
		p.prev = last
		last.next.prev = p
		last.next = p
	}
	return p
}

func removeNode(p *node) {
	p.next.prev = p.prev
	p.prev.next = p.next
	if p.prevZ != nil {
		p.prevZ.nextZ = p.nextZ
	}
	if p.nextZ != nil {
		p.nextZ.prevZ = p.prevZ
	}
}
