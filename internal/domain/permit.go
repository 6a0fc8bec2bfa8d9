package domain

import "time"

// Permit is a redemption code with a bounded number of uses.
type Permit struct {
	ID        PermitID  `json:"id" msgpack:"id"`
	Code      string    `json:"code" msgpack:"code"`
	Used      int       `json:"used" msgpack:"used"`
	Total     int       `json:"total" msgpack:"total"`
	Disabled  bool      `json:"disabled" msgpack:"disabled"`
	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at"`
}

func (p Permit) Remaining() int {
	if p.Used >= p.Total {
		return 0
	}
	return p.Total - p.Used
}

func (p Permit) Exhausted() bool { return p.Used >= p.Total }
