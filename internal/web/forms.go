package web

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmynk/billed/internal/controller"
	"github.com/mmynk/billed/internal/metrics"
)

// form is one open new-bill form.
type form struct {
	id      string
	owner   string
	ctrl    *controller.NewBill
	view    *newBillView
	nav     *navigation
	expires time.Time
}

// formRegistry keeps the new-bill controllers between requests.
type formRegistry struct {
	mu    sync.Mutex
	forms map[string]*form
	ttl   time.Duration
	now   func() time.Time
}

func newFormRegistry(ttl time.Duration) *formRegistry {
	return &formRegistry{forms: make(map[string]*form), ttl: ttl, now: time.Now}
}

// open registers a form built by build for owner.
func (r *formRegistry) open(owner string, build func(controller.NewBillView, controller.Navigator) *controller.NewBill) *form {
	view := &newBillView{}
	nav := &navigation{}
	f := &form{
		id:    uuid.New().String(),
		owner: owner,
		ctrl:  build(view, nav.navigate),
		view:  view,
		nav:   nav,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	f.expires = r.now().Add(r.ttl)
	r.forms[f.id] = f
	metrics.FormsOpen.Set(float64(len(r.forms)))
	return f
}

// get returns the live form id owned by owner and extends its lifetime.
func (r *formRegistry) get(id, owner string) (*form, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	f, ok := r.forms[id]
	if !ok || f.owner != owner {
		return nil, false
	}
	f.expires = r.now().Add(r.ttl)
	return f, true
}

func (r *formRegistry) close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.forms, id)
	metrics.FormsOpen.Set(float64(len(r.forms)))
}

func (r *formRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

func (r *formRegistry) sweepLocked() {
	now := r.now()
	for id, f := range r.forms {
		if now.After(f.expires) {
			delete(r.forms, id)
		}
	}
	metrics.FormsOpen.Set(float64(len(r.forms)))
}
