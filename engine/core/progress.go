package core

// Progress is the loading bar state shared by scene loads and the load pool.
// It doubles as the re-entrancy guard for scene loads: a visible bar means a
// load is in flight.
type Progress struct {
	Show     bool
	Current  int
	MaxValue int
}

func NewProgress() *Progress {
	return &Progress{}
}

func (p *Progress) Reset(show bool) {
	p.Show = show
	p.Current = 0
	p.MaxValue = 0
}

func (p *Progress) InProgress() bool {
	return p.Show
}

func (p *Progress) AddMax(n int) {
	p.MaxValue += n
}

func (p *Progress) Advance() {
	if p.Current < p.MaxValue {
		p.Current++
	}
}

// Settle hides the bar once every step is done.
func (p *Progress) Settle() {
	if p.Current >= p.MaxValue {
		p.Show = false
	}
}

func (p *Progress) Fraction() float32 {
	if p.MaxValue == 0 {
		return 1
	}
	return float32(p.Current) / float32(p.MaxValue)
}
