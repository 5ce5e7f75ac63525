// Package topo holds the router's static topology data model: the
// interfaces and routes configured at startup, immutable for the life
// of the process.
package topo

// Interface is a named endpoint with a MAC and an IPv4 address.
type Interface struct {
	Name string
	MAC  [6]byte
	IP   uint32
}

// Route is one routing-table entry: a destination, the gateway to
// reach it through, and the outgoing interface name. Netmask is kept
// only because the host environment's route records carry one; the
// router never consults it — lookup is exact-match on Dest.
type Route struct {
	Dest      uint32
	Gateway   uint32
	Netmask   uint32
	Interface string
}

// Table is the ordered, immutable list of configured routes. Lookup is
// exact-match on destination; if nothing matches, the first configured
// route is the default.
type Table struct {
	routes []Route
}

// NewTable builds a route table from an ordered route list. The order
// matters: the first entry is the fallback default.
func NewTable(routes []Route) *Table {
	t := &Table{routes: make([]Route, len(routes))}
	copy(t.routes, routes)
	return t
}

// Lookup returns the route for dest: an exact match on Dest if one
// exists, otherwise the first configured route. The second return value
// is false only when the table has no routes at all.
func (t *Table) Lookup(dest uint32) (Route, bool) {
	for _, r := range t.routes {
		if r.Dest == dest {
			return r, true
		}
	}
	if len(t.routes) > 0 {
		return t.routes[0], true
	}
	return Route{}, false
}

// All returns every configured route, in order.
func (t *Table) All() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Interfaces is the ordered, immutable list of configured interfaces.
type Interfaces struct {
	ifaces []Interface
}

// NewInterfaces builds an interface set from an ordered list.
func NewInterfaces(ifaces []Interface) *Interfaces {
	s := &Interfaces{ifaces: make([]Interface, len(ifaces))}
	copy(s.ifaces, ifaces)
	return s
}

// ByName returns the interface with the given name.
func (s *Interfaces) ByName(name string) (Interface, bool) {
	for _, iface := range s.ifaces {
		if iface.Name == name {
			return iface, true
		}
	}
	return Interface{}, false
}

// ByIP returns the interface whose configured IP equals ip.
func (s *Interfaces) ByIP(ip uint32) (Interface, bool) {
	for _, iface := range s.ifaces {
		if iface.IP == ip {
			return iface, true
		}
	}
	return Interface{}, false
}

// All returns every configured interface, in order.
func (s *Interfaces) All() []Interface {
	out := make([]Interface, len(s.ifaces))
	copy(out, s.ifaces)
	return out
}
