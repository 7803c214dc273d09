package utils

import (
	"context"
	"sync"
	"time"
)

// RateLimiter ホストごとにリクエスト間隔を空ける。
// 呼び出し元のゴルーチンで待機してから fn を実行する
type RateLimiter struct {
	interval time.Duration

	mu   sync.Mutex
	next map[string]time.Time
	now  func() time.Time
}

// NewRateLimiter rpsは1秒あたりの上限（0以下なら3）
func NewRateLimiter(rps int) *RateLimiter {
	if rps <= 0 {
		rps = 3
	}
	return &RateLimiter{
		interval: time.Second / time.Duration(rps),
		next:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// reserve 次に実行してよい時刻を予約して返す
func (rl *RateLimiter) reserve(host string) time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	at := rl.next[host]
	if at.Before(now) {
		at = now
	}
	rl.next[host] = at.Add(rl.interval)
	return at
}

// Wait hostの順番が来るまで待つ
func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	delay := rl.reserve(host).Sub(rl.now())
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do 順番を待ってから fn を実行する
func (rl *RateLimiter) Do(ctx context.Context, host string, fn func() (interface{}, error)) (interface{}, error) {
	if err := rl.Wait(ctx, host); err != nil {
		return nil, err
	}
	return fn()
}

// Reset 予約をすべて破棄する
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	rl.next = make(map[string]time.Time)
	rl.mu.Unlock()
}
