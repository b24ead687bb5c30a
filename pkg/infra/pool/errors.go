// Package pool 基于 ants 的 goroutine 池，用于并行摄取等批量任务。
package pool

import "errors"

var (
	// ErrPoolClosed 池已关闭。
	ErrPoolClosed = errors.New("池已关闭")

	// ErrPoolOverload 池已满（仅非阻塞模式）。
	ErrPoolOverload = errors.New("池已满")
)
