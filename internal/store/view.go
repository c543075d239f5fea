package store

import "github.com/robby/cwp/internal/domain"

// ItemView is the list-local state of one member. Views are owned by their
// MissionList and handed out by value.
type ItemView struct {
	ID             domain.ItemID
	Hidden         bool
	Pin            *int // nil when unpinned
	DetailsVisible bool
}

// Pinned reports whether the view holds a pin slot.
func (v ItemView) Pinned() bool {
	return v.Pin != nil
}

func newView(id domain.ItemID, active bool) *ItemView {
	return &ItemView{
		ID:             id,
		Hidden:         !active,
		DetailsVisible: active,
	}
}

// copyView returns v with its pin slot detached from the list's storage.
func copyView(v *ItemView) ItemView {
	out := *v
	if v.Pin != nil {
		slot := *v.Pin
		out.Pin = &slot
	}
	return out
}
