package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tech-trends/config"
)

// QuotaLimiter 는 LLM 호출에 대한 분당/일일 한도를 관리한다.
// 하나의 프로세스 안에서 모든 area analyzer 가 공유하며 인메모리로 동작한다.
// 프로세스가 재시작되면 카운터가 초기화된다.
type QuotaLimiter struct {
	mu sync.Mutex

	dailyLimit int
	usedToday  int
	dayKey     string

	interval time.Duration
	lastCall time.Time

	now func() time.Time
}

// NewQuotaLimiter 는 llm_quota 설정으로 QuotaLimiter 를 생성한다.
// 0 이하의 값은 해당 방향의 제한을 두지 않는다.
func NewQuotaLimiter(cfg config.LLMQuotaConfig) *QuotaLimiter {
	perDay := cfg.RequestsPerDay
	if perDay < 0 {
		perDay = 0
	}

	var interval time.Duration
	if cfg.RequestsPerMinute > 0 {
		interval = time.Minute / time.Duration(cfg.RequestsPerMinute)
	}

	return &QuotaLimiter{
		dailyLimit: perDay,
		interval:   interval,
		now:        time.Now,
	}
}

// Wait 는 호출 전에 분당/일일 한도를 적용한다.
// - 일일 한도 소진: ErrCritical 로 감싼 에러를 반환한다. 같은 날에는 더 이상 진행할 수 없다.
// - 컨텍스트 취소: ctx.Err() 를 그대로 반환한다.
func (l *QuotaLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	for {
		l.mu.Lock()

		now := l.now().UTC()
		todayKey := now.Format("2006-01-02")
		if l.dayKey != todayKey {
			l.dayKey = todayKey
			l.usedToday = 0
		}

		if l.dailyLimit > 0 && l.usedToday >= l.dailyLimit {
			l.mu.Unlock()
			return Critical(fmt.Errorf("daily LLM quota of %d requests exhausted", l.dailyLimit))
		}

		var delay time.Duration
		if l.interval > 0 && !l.lastCall.IsZero() {
			delay = l.lastCall.Add(l.interval).Sub(now)
		}

		if delay <= 0 {
			l.usedToday++
			l.lastCall = now
			l.mu.Unlock()
			return nil
		}

		// 락을 풀고 대기한 뒤 상태를 다시 평가한다.
		l.mu.Unlock()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// UsedToday 는 오늘 예약된 호출 수를 반환한다.
func (l *QuotaLimiter) UsedToday() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.usedToday
}
