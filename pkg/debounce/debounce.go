// Package debounce 提供了一个通用的尾沿防抖原语，
// 用于抑制搜索框这类高频输入触发的重复请求。
package debounce

import (
	"sync"
	"time"
)

// Debouncer 对快速变化的输入值做尾沿防抖：每次 Set 都会重置计时器，
// 只有计时器不被打断地走完，fire 回调才会带着最新值被调用。
// 被新值取代的计时永远不会触发，不存在旧值晚到覆盖新值的情况。
type Debouncer[T any] struct {
	mu    sync.Mutex
	delay time.Duration
	fire  func(T)
	timer *time.Timer
	gen   uint64
	value T
}

// New 创建一个防抖器。fire 在独立的计时器 goroutine 中被调用。
func New[T any](delay time.Duration, fire func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fire: fire}
}

// Set 提交一个新的输入值并重新开始计时。
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.value = v
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// 计时期间有更新的 Set 进来，本次计时作废
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		value := d.value
		d.timer = nil
		d.mu.Unlock()
		d.fire(value)
	})
}

// Flush 立刻发布尚未到期的值（若有），主要供测试与关停使用。
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer.Stop()
	d.gen++
	value := d.value
	d.timer = nil
	d.mu.Unlock()
	d.fire(value)
}

// Stop 取消尚未到期的计时，之后仍可继续 Set。
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
