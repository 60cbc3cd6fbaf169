// Package routes names the navigation targets of the employee front.
package routes

// Route identifies a page of the front end.
type Route string

const (
	Login     Route = "/"
	Bills     Route = "#employee/bills"
	NewBill   Route = "#employee/bill/new"
	Dashboard Route = "#admin/dashboard"
)

// Path maps a route to the URL path served by the HTML front.
func (r Route) Path() string {
	switch r {
	case Bills:
		return "/bills"
	case NewBill:
		return "/bills/new"
	case Dashboard:
		return "/dashboard"
	default:
		return "/login"
	}
}
