package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	p, err := NewPool("test", DefaultConfig(4))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	if p.Name() != "test" {
		t.Errorf("池名称不匹配: 期望 test, 实际 %s", p.Name())
	}
	if p.Cap() != 4 {
		t.Errorf("池容量不匹配: 期望 4, 实际 %d", p.Cap())
	}
	if DefaultConfig(0).Capacity != 1 {
		t.Error("容量不大于 0 时应取 1")
	}
}

func TestPoolSubmit(t *testing.T) {
	p, err := NewPool("test", DefaultConfig(10))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	var counter atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		err := p.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		})
		if err != nil {
			t.Errorf("提交任务失败: %v", err)
			wg.Done()
		}
	}
	wg.Wait()

	if counter.Load() != 100 {
		t.Errorf("任务执行数不匹配: 期望 100, 实际 %d", counter.Load())
	}
}

func TestPoolRun(t *testing.T) {
	p, err := NewPool("ingest", DefaultConfig(3))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	boom := errors.New("boom")
	var ran atomic.Int32
	tasks := make([]func(context.Context) error, 6)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			ran.Add(1)
			if i == 2 {
				return boom
			}
			return nil
		}
	}

	errs := p.Run(context.Background(), tasks)
	if len(errs) != 6 {
		t.Fatalf("错误数量不匹配: 期望 6, 实际 %d", len(errs))
	}
	for i, err := range errs {
		if i == 2 {
			if !errors.Is(err, boom) {
				t.Errorf("任务 2 应返回 boom, 实际 %v", err)
			}
			continue
		}
		if err != nil {
			t.Errorf("任务 %d 不应失败: %v", i, err)
		}
	}
	if ran.Load() != 6 {
		t.Errorf("执行数不匹配: 期望 6, 实际 %d", ran.Load())
	}
}

func TestPoolRunConcurrency(t *testing.T) {
	p, err := NewPool("ingest", DefaultConfig(2))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	var current, peak atomic.Int32
	tasks := make([]func(context.Context) error, 8)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
			return nil
		}
	}

	p.Run(context.Background(), tasks)
	if peak.Load() > 2 {
		t.Errorf("并发数超过容量: %d", peak.Load())
	}
}

func TestPoolRunCanceled(t *testing.T) {
	p, err := NewPool("ingest", DefaultConfig(1))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := p.Run(ctx, []func(context.Context) error{
		func(context.Context) error { return nil },
		func(context.Context) error { return nil },
	})
	for i, err := range errs {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("任务 %d 应返回 context.Canceled, 实际 %v", i, err)
		}
	}
}

func TestPoolRunPanic(t *testing.T) {
	var handled atomic.Int32
	p, err := NewPool("ingest", &Config{
		Capacity:     1,
		PanicHandler: func(any) { handled.Add(1) },
	})
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	errs := p.Run(context.Background(), []func(context.Context) error{
		func(context.Context) error { panic("bad page") },
		func(context.Context) error { return nil },
	})
	if errs[0] == nil {
		t.Error("panic 任务应返回错误")
	}
	if errs[1] != nil {
		t.Errorf("正常任务不应失败: %v", errs[1])
	}

	time.Sleep(20 * time.Millisecond)
	if handled.Load() != 1 {
		t.Errorf("PanicHandler 调用次数: 期望 1, 实际 %d", handled.Load())
	}
	if p.Stats().Panics != 1 {
		t.Errorf("panic 计数: 期望 1, 实际 %d", p.Stats().Panics)
	}
}

func TestPoolRelease(t *testing.T) {
	p, err := NewPool("test", DefaultConfig(2))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}

	p.Release()
	p.Release()

	if err := p.Submit(func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("关闭后提交应返回 ErrPoolClosed, 实际 %v", err)
	}
	if err := p.ReleaseTimeout(time.Second); err != nil {
		t.Errorf("重复关闭不应报错: %v", err)
	}
}
