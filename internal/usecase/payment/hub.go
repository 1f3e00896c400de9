package payment

import "sync"

// Hub fans settled statuses out to open status streams of the same order.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan StatusView]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[string]map[chan StatusView]struct{}{}}
}

// Subscribe returns a channel receiving status changes for orderID and a func to release it.
func (h *Hub) Subscribe(orderID string) (<-chan StatusView, func()) {
	ch := make(chan StatusView, 1)

	h.mu.Lock()
	if h.subs[orderID] == nil {
		h.subs[orderID] = map[chan StatusView]struct{}{}
	}
	h.subs[orderID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[orderID], ch)
			if len(h.subs[orderID]) == 0 {
				delete(h.subs, orderID)
			}
			h.mu.Unlock()
		})
	}
}

func (h *Hub) Publish(v StatusView) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[v.OrderID] {
		// keep only the latest status for slow readers
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}
