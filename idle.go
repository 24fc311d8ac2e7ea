package reactor

import "container/list"

// IdleCallback fires when a connection has been idle for at least its
// registered threshold.
type IdleCallback func(conn *TcpConn)

type idleNode struct {
	conn    *TcpConn
	updated int64 // last-activity time, in seconds
	cb      IdleCallback
}

// IdleID is a stable handle into a reactor's idle bucket, valid across
// splices within the same bucket (handy's IdleIdImp wraps a list
// iterator; here it wraps the *list.Element directly, which Go's
// container/list keeps valid across MoveToBack).
type IdleID struct {
	bucket *list.List
	elem   *list.Element
}

// Valid reports whether id came from a registration (the zero IdleID is
// not valid). It stays true after the registration is removed.
func (id IdleID) Valid() bool { return id.bucket != nil && id.elem != nil }

// idleSet owns the idle_seconds -> bucket map for one reactor.
type idleSet struct {
	buckets map[int]*list.List
	enabled bool
}

func newIdleSet() *idleSet {
	return &idleSet{buckets: make(map[int]*list.List)}
}

// register adds conn to the bucket for seconds, lazily scheduling the
// reactor's 1-second sweep on first use via enableSweep.
func (s *idleSet) register(seconds int, conn *TcpConn, cb IdleCallback, enableSweep func()) IdleID {
	if !s.enabled {
		enableSweep()
		s.enabled = true
	}
	b, ok := s.buckets[seconds]
	if !ok {
		b = list.New()
		s.buckets[seconds] = b
	}
	elem := b.PushBack(&idleNode{conn: conn, updated: nowSeconds(), cb: cb})
	return IdleID{bucket: b, elem: elem}
}

// unregister removes id's node from its bucket.
func (s *idleSet) unregister(id IdleID) {
	if !id.Valid() {
		return
	}
	id.bucket.Remove(id.elem)
}

// update refreshes id's last-activity time and splices it to the tail
// of its bucket, keeping the bucket ordered oldest-first.
func (s *idleSet) update(id IdleID) {
	if !id.Valid() {
		return
	}
	node := id.elem.Value.(*idleNode)
	node.updated = nowSeconds()
	id.bucket.MoveToBack(id.elem)
}

// sweep walks every bucket, firing callbacks for each leading node
// whose idle duration has elapsed and splicing it to the tail, then
// stopping at the first node that is still fresh.
func (s *idleSet) sweep() {
	now := nowSeconds()
	for seconds, b := range s.buckets {
		for {
			front := b.Front()
			if front == nil {
				break
			}
			node := front.Value.(*idleNode)
			if node.updated+int64(seconds) > now {
				break
			}
			node.updated = now
			b.MoveToBack(front)
			node.cb(node.conn)
		}
	}
}

func (s *idleSet) clear() {
	s.buckets = make(map[int]*list.List)
	s.enabled = false
}
