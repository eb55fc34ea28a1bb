package auth

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiterConfig はログイン試行のレート制限設定。
type LoginLimiterConfig struct {
	MaxAttempts     int           // ウィンドウあたりの最大試行回数
	Window          time.Duration // 試行回数を数えるウィンドウ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultLoginLimiterConfig はデフォルトのログイン制限設定を返す。
// 要件: 同一メールアドレスにつき5分間に5回まで
func DefaultLoginLimiterConfig() LoginLimiterConfig {
	return LoginLimiterConfig{
		MaxAttempts:     5,
		Window:          5 * time.Minute,
		CleanupInterval: 10 * time.Minute,
	}
}

// emailLimiter はメールアドレスごとのレートリミッターとアクセス時刻を保持する。
type emailLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LoginLimiter はメールアドレスごとのログイン試行回数を制限する。
// ウィンドウ内の試行がMaxAttemptsを超えると、トークンが補充されるまで拒否する。
type LoginLimiter struct {
	config LoginLimiterConfig

	mu       sync.RWMutex
	limiters map[string]*emailLimiter

	stopCh chan struct{}
}

// NewLoginLimiter は新しいLoginLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewLoginLimiter(config LoginLimiterConfig) *LoginLimiter {
	ll := &LoginLimiter{
		config:   config,
		limiters: make(map[string]*emailLimiter),
		stopCh:   make(chan struct{}),
	}

	go ll.cleanupLoop()

	return ll
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (ll *LoginLimiter) Stop() {
	close(ll.stopCh)
}

// Allow は指定メールアドレスのログイン試行を許可するかどうかを返す。
// メールアドレスは小文字に正規化して数える。
func (ll *LoginLimiter) Allow(email string) bool {
	return ll.getOrCreateLimiter(strings.ToLower(email)).Allow()
}

// LimiterCount は現在管理されているリミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (ll *LoginLimiter) LimiterCount() int {
	ll.mu.RLock()
	defer ll.mu.RUnlock()
	return len(ll.limiters)
}

// getOrCreateLimiter はメールアドレスのリミッターを取得または作成する。
func (ll *LoginLimiter) getOrCreateLimiter(email string) *rate.Limiter {
	ll.mu.RLock()
	el, exists := ll.limiters[email]
	ll.mu.RUnlock()

	if exists {
		ll.mu.Lock()
		el.lastAccess = time.Now()
		ll.mu.Unlock()
		return el.limiter
	}

	ll.mu.Lock()
	defer ll.mu.Unlock()

	// ダブルチェック
	if el, exists := ll.limiters[email]; exists {
		el.lastAccess = time.Now()
		return el.limiter
	}

	// MaxAttempts回のバーストを許し、ウィンドウをかけて回復させる
	limit := rate.Every(ll.config.Window / time.Duration(ll.config.MaxAttempts))
	limiter := rate.NewLimiter(limit, ll.config.MaxAttempts)
	ll.limiters[email] = &emailLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (ll *LoginLimiter) cleanupLoop() {
	ticker := time.NewTicker(ll.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ll.cleanup()
		case <-ll.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (ll *LoginLimiter) cleanup() {
	ttl := ll.config.CleanupInterval * 2
	now := time.Now()

	ll.mu.Lock()
	for email, el := range ll.limiters {
		if now.Sub(el.lastAccess) > ttl {
			delete(ll.limiters, email)
		}
	}
	ll.mu.Unlock()
}
