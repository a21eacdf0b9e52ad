package book

// Red-black tree keyed by price, one per book side. Gives O(log n)
// level lookup and ordered iteration in both directions for the
// best-price-first matching walk.

type color uint8

const (
	red   color = 0
	black color = 1
)

type treeNode struct {
	price  Price
	level  *PriceLevel
	color  color
	left   *treeNode
	right  *treeNode
	parent *treeNode
}

type sideTree struct {
	root *treeNode
	nil  *treeNode // shared black sentinel
	size int
}

func newSideTree() *sideTree {
	sentinel := &treeNode{color: black}
	return &sideTree{
		root: sentinel,
		nil:  sentinel,
	}
}

func (t *sideTree) len() int { return t.size }

func (t *sideTree) find(price Price) *PriceLevel {
	n := t.root
	for n != t.nil {
		switch {
		case price < n.price:
			n = n.left
		case price > n.price:
			n = n.right
		default:
			return n.level
		}
	}
	return nil
}

// getOrCreate returns the level at price, creating it with mk on first use.
func (t *sideTree) getOrCreate(price Price, mk func(Price) *PriceLevel) *PriceLevel {
	y := t.nil
	x := t.root
	for x != t.nil {
		y = x
		switch {
		case price < x.price:
			x = x.left
		case price > x.price:
			x = x.right
		default:
			return x.level
		}
	}

	z := &treeNode{
		price:  price,
		level:  mk(price),
		color:  red,
		left:   t.nil,
		right:  t.nil,
		parent: y,
	}
	if y == t.nil {
		t.root = z
	} else if z.price < y.price {
		y.left = z
	} else {
		y.right = z
	}
	t.insertFixup(z)
	t.size++
	return z.level
}

func (t *sideTree) delete(price Price) bool {
	z := t.searchNode(price)
	if z == t.nil {
		return false
	}
	t.deleteNode(z)
	t.size--
	return true
}

func (t *sideTree) min() *PriceLevel {
	n := t.minNode(t.root)
	if n == t.nil {
		return nil
	}
	return n.level
}

func (t *sideTree) max() *PriceLevel {
	n := t.maxNode(t.root)
	if n == t.nil {
		return nil
	}
	return n.level
}

func (t *sideTree) ascend(fn func(*PriceLevel) bool) {
	for n := t.minNode(t.root); n != t.nil; n = t.next(n) {
		if !fn(n.level) {
			return
		}
	}
}

func (t *sideTree) descend(fn func(*PriceLevel) bool) {
	for n := t.maxNode(t.root); n != t.nil; n = t.prev(n) {
		if !fn(n.level) {
			return
		}
	}
}

// ---- internal helpers ----

func (t *sideTree) searchNode(price Price) *treeNode {
	n := t.root
	for n != t.nil {
		switch {
		case price < n.price:
			n = n.left
		case price > n.price:
			n = n.right
		default:
			return n
		}
	}
	return t.nil
}

func (t *sideTree) minNode(n *treeNode) *treeNode {
	if n == t.nil {
		return t.nil
	}
	for n.left != t.nil {
		n = n.left
	}
	return n
}

func (t *sideTree) maxNode(n *treeNode) *treeNode {
	if n == t.nil {
		return t.nil
	}
	for n.right != t.nil {
		n = n.right
	}
	return n
}

func (t *sideTree) next(n *treeNode) *treeNode {
	if n.right != t.nil {
		return t.minNode(n.right)
	}
	p := n.parent
	for p != t.nil && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

func (t *sideTree) prev(n *treeNode) *treeNode {
	if n.left != t.nil {
		return t.maxNode(n.left)
	}
	p := n.parent
	for p != t.nil && n == p.left {
		n = p
		p = p.parent
	}
	return p
}

func (t *sideTree) rotateLeft(x *treeNode) {
	y := x.right
	x.right = y.left
	if y.left != t.nil {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nil {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *sideTree) rotateRight(y *treeNode) {
	x := y.left
	y.left = x.right
	if x.right != t.nil {
		x.right.parent = y
	}
	x.parent = y.parent
	if y.parent == t.nil {
		t.root = x
	} else if y == y.parent.right {
		y.parent.right = x
	} else {
		y.parent.left = x
	}
	x.right = y
	y.parent = x
}

func (t *sideTree) insertFixup(z *treeNode) {
	for z.parent.color == red {
		if z.parent == z.parent.parent.left {
			u := z.parent.parent.right
			if u.color == red {
				z.parent.color = black
				u.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.rotateLeft(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rotateRight(z.parent.parent)
			}
		} else {
			u := z.parent.parent.left
			if u.color == red {
				z.parent.color = black
				u.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rotateRight(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rotateLeft(z.parent.parent)
			}
		}
	}
	t.root.color = black
}

func (t *sideTree) transplant(u, v *treeNode) {
	if u.parent == t.nil {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *sideTree) deleteNode(z *treeNode) {
	y := z
	yWasBlack := y.color == black
	var x *treeNode

	switch {
	case z.left == t.nil:
		x = z.right
		t.transplant(z, z.right)
	case z.right == t.nil:
		x = z.left
		t.transplant(z, z.left)
	default:
		y = t.minNode(z.right)
		yWasBlack = y.color == black
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	if yWasBlack {
		t.deleteFixup(x)
	}
}

func (t *sideTree) deleteFixup(x *treeNode) {
	for x != t.root && x.color == black {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rotateLeft(x.parent)
				w = x.parent.right
			}
			if w.left.color == black && w.right.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.right.color == black {
					w.left.color = black
					w.color = red
					t.rotateRight(w)
					w = x.parent.right
				}
				w.color = x.parent.color
				x.parent.color = black
				w.right.color = black
				t.rotateLeft(x.parent)
				x = t.root
			}
		} else {
			w := x.parent.left
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rotateRight(x.parent)
				w = x.parent.left
			}
			if w.right.color == black && w.left.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.left.color == black {
					w.right.color = black
					w.color = red
					t.rotateLeft(w)
					w = x.parent.left
				}
				w.color = x.parent.color
				x.parent.color = black
				w.left.color = black
				t.rotateRight(x.parent)
				x = t.root
			}
		}
	}
	x.color = black
}
