package mm

import "github.com/joshuapare/heapkit/heap/block"

// freeNode is the free-list entry of one free block.
type freeNode struct {
	bp   block.Ref
	prev *freeNode // lower address, nil at root
	next *freeNode // higher address, nil at top
}

// findFit returns the first node, scanning from the lowest address, whose
// block holds at least asize bytes.
func (a *Allocator) findFit(asize int) *freeNode {
	for n := a.root; n != nil; n = n.next {
		if block.Size(a.data, n.bp) >= asize {
			return n
		}
	}
	return nil
}

// insert links a node for bp at its address-ordered position.
func (a *Allocator) insert(bp block.Ref) *freeNode {
	n := &freeNode{bp: bp}
	a.nodes[bp] = n

	switch {
	case a.root == nil:
		a.root, a.top = n, n
	case bp < a.root.bp:
		n.next = a.root
		a.root.prev = n
		a.root = n
	case bp > a.top.bp:
		n.prev = a.top
		a.top.next = n
		a.top = n
	default:
		// root < bp < top, so the gap has a node on both sides.
		cur := a.root
		for cur.next.bp < bp {
			cur = cur.next
		}
		n.prev = cur
		n.next = cur.next
		cur.next.prev = n
		cur.next = n
	}
	return n
}

// pushTop links a node for bp above every other node. bp must be the highest
// free block, which holds for space just obtained from the provider.
func (a *Allocator) pushTop(bp block.Ref) *freeNode {
	n := &freeNode{bp: bp}
	a.nodes[bp] = n
	if a.top == nil {
		a.root, a.top = n, n
		return n
	}
	n.prev = a.top
	a.top.next = n
	a.top = n
	return n
}

// remove unlinks n from the list.
func (a *Allocator) remove(n *freeNode) {
	switch {
	case n.prev == nil && n.next == nil:
		a.root, a.top = nil, nil
	case n.prev == nil:
		a.root = n.next
		n.next.prev = nil
	case n.next == nil:
		a.top = n.prev
		n.prev.next = nil
	default:
		n.prev.next = n.next
		n.next.prev = n.prev
	}
	n.prev, n.next = nil, nil
	delete(a.nodes, n.bp)
}

// rekey moves n to a new block address without changing its list position.
// The caller guarantees bp stays between n's neighbors.
func (a *Allocator) rekey(n *freeNode, bp block.Ref) {
	delete(a.nodes, n.bp)
	n.bp = bp
	a.nodes[bp] = n
}

// Root returns the lowest free block, or Nil when the list is empty.
func (a *Allocator) Root() block.Ref {
	if a.root == nil {
		return block.Nil
	}
	return a.root.bp
}

// Top returns the highest free block, or Nil when the list is empty.
func (a *Allocator) Top() block.Ref {
	if a.top == nil {
		return block.Nil
	}
	return a.top.bp
}

// FreeList returns the free blocks from root to top.
func (a *Allocator) FreeList() []block.Ref {
	refs := make([]block.Ref, 0, len(a.nodes))
	for n := a.root; n != nil; n = n.next {
		refs = append(refs, n.bp)
	}
	return refs
}
