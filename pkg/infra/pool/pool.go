package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// Config 池配置。
type Config struct {
	// Capacity 最大并发 goroutine 数。
	Capacity int
	// ExpiryDuration goroutine 空闲过期时间。
	ExpiryDuration time.Duration
	// Nonblocking 池满时提交直接返回 ErrPoolOverload。
	Nonblocking bool
	// PanicHandler 任务 panic 时的处理函数，为 nil 时记录日志。
	PanicHandler func(any)
}

// DefaultConfig 返回默认配置，capacity 不大于 0 时取 1。
func DefaultConfig(capacity int) *Config {
	if capacity <= 0 {
		capacity = 1
	}
	return &Config{
		Capacity:       capacity,
		ExpiryDuration: 10 * time.Second,
	}
}

// Pool goroutine 池。
type Pool struct {
	name   string
	pool   *ants.Pool
	stats  counters
	closed atomic.Bool
	mu     sync.Mutex
}

type counters struct {
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
	panics    atomic.Int64
}

// Stats 池统计快照。
type Stats struct {
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Rejected  int64 `json:"rejected"`
	Panics    int64 `json:"panics"`
}

// NewPool 创建池。
func NewPool(name string, config *Config) (*Pool, error) {
	if config == nil {
		config = DefaultConfig(1)
	}

	handler := config.PanicHandler
	if handler == nil {
		handler = func(r any) {
			logger.Errorw("Worker panic recovered", "pool", name, "panic", r)
		}
	}

	p := &Pool{name: name}
	pool, err := ants.NewPool(config.Capacity,
		ants.WithExpiryDuration(config.ExpiryDuration),
		ants.WithNonblocking(config.Nonblocking),
		ants.WithPanicHandler(handler),
	)
	if err != nil {
		return nil, fmt.Errorf("创建 ants 池失败: %w", err)
	}
	p.pool = pool

	logger.Debugw("Worker pool created", "name", name, "capacity", config.Capacity)
	return p, nil
}

// Name 返回池名称。
func (p *Pool) Name() string { return p.name }

// Cap 返回池容量。
func (p *Pool) Cap() int { return p.pool.Cap() }

// Running 返回正在运行的 goroutine 数量。
func (p *Pool) Running() int { return p.pool.Running() }

// Submit 提交任务。
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	err := p.pool.Submit(func() {
		p.stats.submitted.Add(1)
		defer func() {
			if r := recover(); r != nil {
				p.stats.panics.Add(1)
				p.stats.failed.Add(1)
				panic(r)
			}
			p.stats.completed.Add(1)
		}()
		task()
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			p.stats.rejected.Add(1)
			return ErrPoolOverload
		}
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}
	return nil
}

// Run 并发执行所有任务并等待结束，errs[i] 对应 tasks[i]。
// 上下文取消后尚未开始的任务不再执行，其错误为 ctx.Err()。
// 任务 panic 时对应错误为非 nil。
func (p *Pool) Run(ctx context.Context, tasks []func(context.Context) error) []error {
	errs := make([]error, len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}

		wg.Add(1)
		err := p.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("task panic: %v", r)
					panic(r)
				}
			}()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			errs[i] = task(ctx)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}

	wg.Wait()
	return errs
}

// Release 关闭池。
func (p *Pool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Swap(true) {
		return
	}
	p.pool.Release()
	logger.Debugw("Worker pool released", "name", p.name)
}

// ReleaseTimeout 关闭池并等待运行中的任务结束，超时返回错误。
func (p *Pool) ReleaseTimeout(timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Swap(true) {
		return nil
	}
	return p.pool.ReleaseTimeout(timeout)
}

// Stats 返回统计快照。
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.stats.submitted.Load(),
		Completed: p.stats.completed.Load(),
		Failed:    p.stats.failed.Load(),
		Rejected:  p.stats.rejected.Load(),
		Panics:    p.stats.panics.Load(),
	}
}
