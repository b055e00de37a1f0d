package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
)

// generation 屏障的一轮等待
type generation struct {
	arrived int
	done    chan struct{}
	broken  bool
}

func newGeneration() *generation {
	return &generation{done: make(chan struct{})}
}

// Barrier 可复用的循环屏障。
// 最后一个到达者先执行 action，再同时放行所有等待者；新到达者直接进入下一轮。
// 任一等待者的 ctx 结束或调用 Break 都会打破当前一轮，其余等待者收到 ErrBarrierFailure。
type Barrier struct {
	parties int
	action  func()

	mu     sync.Mutex
	gen    *generation
	closed bool
}

// NewBarrier 创建屏障
func NewBarrier(parties int, action func()) *Barrier {
	return &Barrier{
		parties: parties,
		action:  action,
		gen:     newGeneration(),
	}
}

// Await 等待所有参与者到达
func (b *Barrier) Await(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return apperrors.ErrBarrierFailure
	}
	g := b.gen
	g.arrived++
	if g.arrived >= b.parties {
		b.gen = newGeneration()
		b.mu.Unlock()
		if b.action != nil {
			b.action()
		}
		close(g.done)
		return nil
	}
	b.mu.Unlock()

	select {
	case <-g.done:
	case <-ctx.Done():
		b.mu.Lock()
		if b.gen == g {
			b.breakLocked()
			b.mu.Unlock()
			return fmt.Errorf("%w: %w", apperrors.ErrBarrierFailure, ctx.Err())
		}
		b.mu.Unlock()
		// 本轮已触发，等待 action 执行完毕
		<-g.done
	}
	if g.broken {
		return apperrors.ErrBarrierFailure
	}
	return nil
}

// Break 打破当前一轮并关闭屏障，之后的 Await 立即失败
func (b *Barrier) Break() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.breakLocked()
}

func (b *Barrier) breakLocked() {
	b.gen.broken = true
	close(b.gen.done)
	b.gen = newGeneration()
}

// Waiting 当前一轮已到达的人数
func (b *Barrier) Waiting() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen.arrived
}

// Parties 参与人数
func (b *Barrier) Parties() int {
	return b.parties
}
