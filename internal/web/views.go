package web

import (
	"errors"
	"sync"

	"connectrpc.com/connect"
	"github.com/mmynk/billed/internal/controller"
	"github.com/mmynk/billed/internal/routes"
)

// billsView collects what the bills controller rendered during one request.
type billsView struct {
	Bills   []controller.DisplayBill
	Receipt string
	Err     string
}

func (v *billsView) RenderBills(bills []controller.DisplayBill) { v.Bills = bills }
func (v *billsView) RenderError(err error)                     { v.Err = errorMessage(err) }
func (v *billsView) ShowReceipt(url string)                    { v.Receipt = url }

// newBillView accumulates the messages of a form controller until the next
// page render drains them.
type newBillView struct {
	mu        sync.Mutex
	alerts    []string
	errs      []string
	resetFile bool
}

func (v *newBillView) Alert(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts = append(v.alerts, message)
}

func (v *newBillView) ResetFileInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resetFile = true
}

func (v *newBillView) RenderError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errs = append(v.errs, errorMessage(err))
}

type flash struct {
	Alerts    []string
	Errors    []string
	ResetFile bool
}

func (v *newBillView) drain() flash {
	v.mu.Lock()
	defer v.mu.Unlock()
	f := flash{Alerts: v.alerts, Errors: v.errs, ResetFile: v.resetFile}
	v.alerts, v.errs, v.resetFile = nil, nil, false
	return f
}

// errorMessage renders store errors the way the pages show them.
func errorMessage(err error) string {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return "Erreur: " + connectErr.Message()
	}
	return "Erreur: " + err.Error()
}

// navigation records the route a controller asked for.
type navigation struct {
	mu    sync.Mutex
	route routes.Route
}

func (n *navigation) navigate(route routes.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.route = route
}

// take returns the requested route, if any, and clears it.
func (n *navigation) take() (routes.Route, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	route := n.route
	n.route = ""
	return route, route != ""
}
