package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/wagamachi/meiten/api/common"
	"github.com/wagamachi/meiten/utils"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

type IPRateLimiter struct {
	rps        float64       // 每秒请求数
	burst      int           // 令牌桶的容量
	expireTime time.Duration // 过期时间
	limiterMap *sync.Map
	stopChan   chan struct{}
	stopOnce   sync.Once
	done       chan struct{}
}

// NewIPRateLimiter Create new IP-based rate limits
func NewIPRateLimiter(rps float64, burst int, expireTime time.Duration) *IPRateLimiter {
	if expireTime <= 0 {
		expireTime = 10 * time.Minute
	}
	limiter := &IPRateLimiter{
		rps:        rps,
		burst:      burst,
		expireTime: expireTime,
		limiterMap: &sync.Map{},
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}

	// 启动后台清理 goroutine
	utils.SafeGo(func() { limiter.cleanupStaleClients(time.Minute) })

	return limiter
}

// Middleware Return a Gin middleware handler
func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			common.RespondErrorAbort(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}

// Allow 判断该客户端是否还有令牌
func (rl *IPRateLimiter) Allow(ip string) bool {
	val, ok := rl.limiterMap.Load(ip)
	if !ok {
		val, _ = rl.limiterMap.LoadOrStore(ip, &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst),
		})
	}

	client := val.(*clientLimiter)
	client.mu.Lock()
	client.lastSeen = time.Now()
	client.mu.Unlock()

	return client.limiter.Allow()
}

// StopCleanup 停止后台清理并等待其退出，可重复调用
func (rl *IPRateLimiter) StopCleanup() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
	<-rl.done
}

func (rl *IPRateLimiter) cleanupStaleClients(interval time.Duration) {
	defer close(rl.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evict(time.Now())
		case <-rl.stopChan:
			return
		}
	}
}

// evict 删除超过 expireTime 未出现的客户端
func (rl *IPRateLimiter) evict(now time.Time) {
	rl.limiterMap.Range(func(key, value interface{}) bool {
		client := value.(*clientLimiter)
		client.mu.Lock()
		stale := now.Sub(client.lastSeen) > rl.expireTime
		client.mu.Unlock()
		if stale {
			rl.limiterMap.Delete(key)
		}
		return true
	})
}
