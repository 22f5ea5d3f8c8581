package services

import (
	"fmt"
	"time"

	"kit-telegram/models"
)

const dayLayout = "2006-01-02"

// QuotaPolicy is the demo-mode gate for unverified users: a per-message
// cooldown plus a daily cap that resets when the calendar day changes.
type QuotaPolicy struct {
	Enabled     bool
	DailyLimit  int
	CooldownSec int
}

// Check reports whether one more demo request is allowed right now. The
// returned reason is a user-facing Russian message when denied.
func (p QuotaPolicy) Check(u models.DemoUsage, now time.Time) (bool, string) {
	if !p.Enabled {
		return false, "Демо-режим временно отключён."
	}
	today := now.Format(dayLayout)
	count := u.Count
	if u.Date != today {
		count = 0
	}
	if wait := int64(p.CooldownSec) - (now.Unix() - u.LastTS); u.LastTS > 0 && wait > 0 {
		return false, fmt.Sprintf("Подождите %d сек. перед следующим вопросом.", wait)
	}
	if count >= p.DailyLimit {
		return false, fmt.Sprintf("Лимит в демо %d/день исчерпан. Оформите доступ, чтобы общаться без ограничений.", p.DailyLimit)
	}
	return true, ""
}

// RegisterHit accounts one successful demo reply: bumps the day counter
// (resetting it on day rollover) and stamps the last-use time.
func RegisterHit(u models.DemoUsage, now time.Time) models.DemoUsage {
	today := now.Format(dayLayout)
	if u.Date != today {
		u.Date = today
		u.Count = 0
	}
	u.Count++
	u.LastTS = now.Unix()
	return u
}
