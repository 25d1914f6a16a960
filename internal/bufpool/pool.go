// Package bufpool hands out reusable byte buffers for the fixed-size
// ciphertext block scratch space internal/stream allocates once per block.
package bufpool

import "sync"

// Pool hands out buffers of a single fixed size, zeroing them before
// they go back in so a decrypted block never leaks into the next caller.
type Pool struct {
	pool sync.Pool
	size int
}

// New returns a Pool whose buffers are always size bytes long.
func New(size int) *Pool {
	return &Pool{
		size: size,
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, size)
				return &b
			},
		},
	}
}

// Get returns a buffer of the pool's configured size. Contents are not
// guaranteed zero on return from Get.
func (p *Pool) Get() []byte {
	return *p.pool.Get().(*[]byte)
}

// Put returns b to the pool after zeroing it. b must have come from Get
// and have its original length; anything else is dropped rather than risk
// corrupting a future caller's read.
func (p *Pool) Put(b []byte) {
	if len(b) != p.size {
		return
	}
	for i := range b {
		b[i] = 0
	}
	p.pool.Put(&b)
}
