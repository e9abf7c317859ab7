package menuaccess

// GrantSet is the set of backend menu-URLs a user is authorised to reach.
// Order is irrelevant; membership is exact string match.
type GrantSet map[string]struct{}

// NewGrantSet builds a GrantSet from the URL list returned by the access
// query. Empty strings are ignored.
func NewGrantSet(urls []string) GrantSet {
	grants := make(GrantSet, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		grants[u] = struct{}{}
	}
	return grants
}

// Contains reports membership of a backend URL.
func (g GrantSet) Contains(url string) bool {
	_, ok := g[url]
	return ok
}

// IsRouteGranted reports whether the route's mapped backend URL is in the
// grant set. An unmapped route is never granted, regardless of grants.
func IsRouteGranted(route string, grants GrantSet) bool {
	url, ok := URLFor(route)
	if !ok {
		return false
	}
	return grants.Contains(url)
}

// FilterMenuTree returns the subset of the tree the user may see. The filter
// is stable: surviving nodes and children keep their source order. Parents
// whose children are all filtered out are dropped entirely rather than shown
// as empty sections. Superadmins see the tree unchanged.
func FilterMenuTree(tree []MenuNode, grants GrantSet, superadmin bool) []MenuNode {
	if superadmin {
		return tree
	}

	filtered := make([]MenuNode, 0, len(tree))
	for _, node := range tree {
		if node.IsLeaf() {
			if IsRouteGranted(node.Route, grants) {
				filtered = append(filtered, node)
			}
			continue
		}

		children := make([]MenuNode, 0, len(node.Children))
		for _, child := range node.Children {
			if IsRouteGranted(child.Route, grants) {
				children = append(children, child)
			}
		}
		if len(children) == 0 {
			continue
		}
		kept := node
		kept.Children = children
		filtered = append(filtered, kept)
	}
	return filtered
}

// ComputeAccessibleTabs returns the set of tab ids the user may see. The
// account tab is always included. Every other tab is included for
// superadmins, or when its mapped backend URL is granted.
func ComputeAccessibleTabs(tabIDs []string, grants GrantSet, superadmin bool) GrantSet {
	accessible := make(GrantSet, len(tabIDs))
	for _, tab := range tabIDs {
		if tab == TabAccount {
			accessible[tab] = struct{}{}
			continue
		}
		if superadmin || IsRouteGranted(tab, grants) {
			accessible[tab] = struct{}{}
		}
	}
	return accessible
}

// IsValidRoute reports whether a route names a real destination: it must
// resolve through the mapping and appear somewhere in the menu tree or the
// fixed tab set. Inbound navigation requests are checked against this before
// being honoured.
func IsValidRoute(route string) bool {
	if !HasMapping(route) {
		return false
	}
	for _, tab := range FixedTabs() {
		if tab == route {
			return true
		}
	}
	for _, node := range DefaultMenuTree() {
		if node.IsLeaf() {
			if node.Route == route {
				return true
			}
			continue
		}
		for _, child := range node.Children {
			if child.Route == route {
				return true
			}
		}
	}
	return false
}
