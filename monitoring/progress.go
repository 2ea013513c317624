package monitoring

import (
	"sync"
	"time"
)

// Progress tracks how many of a known number of items are done.
type Progress struct {
	sync.Mutex
	ID        string
	Name      string
	StartTime time.Time
	Total     uint64
	Finished  uint64
}

type progressRsp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// Advance marks amount more items as done.
func (p *Progress) Advance(amount uint64) {
	p.Lock()
	defer p.Unlock()

	p.Finished += amount
	if p.Finished > p.Total {
		p.Finished = p.Total
	}
}

func (p *Progress) snapshot() progressRsp {
	p.Lock()
	defer p.Unlock()

	return progressRsp{
		ID:        p.ID,
		Name:      p.Name,
		StartTime: p.StartTime,
		Total:     p.Total,
		Finished:  p.Finished,
	}
}
