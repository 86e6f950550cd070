package tracker

const DefaultPageSize = 20

// Pager is a derived view over a row count; Current is 1-based.
type Pager struct {
	Size       int `json:"pageSize"`
	Current    int `json:"page"`
	TotalPages int `json:"totalPages"`
}

func NewPager(size int) Pager {
	p := Pager{Current: 1, TotalPages: 1}
	p.SetSize(size)
	return p
}

func (p *Pager) SetSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	p.Size = size
}

// Clamp recomputes TotalPages for total rows and pulls Current back into range.
func (p *Pager) Clamp(total int) {
	p.TotalPages = (total + p.Size - 1) / p.Size
	if p.TotalPages < 1 {
		p.TotalPages = 1
	}
	if p.Current > p.TotalPages {
		p.Current = p.TotalPages
	}
	if p.Current < 1 {
		p.Current = 1
	}
}

// Bounds returns the [lo, hi) slice indexes of the current page.
func (p Pager) Bounds(total int) (int, int) {
	lo := (p.Current - 1) * p.Size
	if lo > total {
		lo = total
	}
	hi := lo + p.Size
	if hi > total {
		hi = total
	}
	return lo, hi
}
