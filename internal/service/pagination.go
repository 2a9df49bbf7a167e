package service

import "github.com/d60-Lab/eventhub/internal/cache"

const (
	DefaultPageLimit = 8
	MaxPageLimit     = 100
)

// Pagination limit/offset 分页参数
type Pagination struct {
	Limit  int
	Offset int
}

// Normalize 非法值回落到默认值，limit 上限 MaxPageLimit
func (p Pagination) Normalize() Pagination {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// EventPage 一页活动及总数
type EventPage = cache.EventPage
