package itemgen

// portProfile describes a primitive kind's terminal-count and role
// requirements, per §4.10's table.
type portProfile struct {
	min, max         int // max == -1 means unbounded.
	outputs, inouts, inputs int // -1 means "n - fixed", resolved against the actual terminal count.
}

var primitiveProfiles = map[string]portProfile{
	"and": {3, -1, 1, 0, -1}, "nand": {3, -1, 1, 0, -1},
	"or": {3, -1, 1, 0, -1}, "nor": {3, -1, 1, 0, -1},
	"xor": {3, -1, 1, 0, -1}, "xnor": {3, -1, 1, 0, -1},

	"buf": {2, -1, -1, 0, 1}, "not": {2, -1, -1, 0, 1},

	"bufif0": {3, 3, 1, 0, 2}, "bufif1": {3, 3, 1, 0, 2},
	"notif0": {3, 3, 1, 0, 2}, "notif1": {3, 3, 1, 0, 2},
	"nmos": {3, 3, 1, 0, 2}, "pmos": {3, 3, 1, 0, 2},
	"rnmos": {3, 3, 1, 0, 2}, "rpmos": {3, 3, 1, 0, 2},

	"cmos": {4, 4, 1, 0, 3}, "rcmos": {4, 4, 1, 0, 3},

	"tran": {2, 2, 0, 2, 0}, "rtran": {2, 2, 0, 2, 0},

	"tranif0": {3, 3, 0, 2, 1}, "tranif1": {3, 3, 0, 2, 1},
	"rtranif0": {3, 3, 0, 2, 1}, "rtranif1": {3, 3, 0, 2, 1},

	"pullup": {1, 1, 1, 0, 0}, "pulldown": {1, 1, 1, 0, 0},
}

// udpCellProfile is the profile applied to a user-defined primitive or cell
// whose name is not one of the built-in gate kinds.
var udpCellProfile = portProfile{1, -1, 1, 0, -1}

// lookupProfile returns the port-count profile for a primitive kind,
// falling back to the UDP/cell profile for any name not in the built-in
// gate table.
func lookupProfile(kind string) portProfile {
	if p, ok := primitiveProfiles[kind]; ok {
		return p
	}
	return udpCellProfile
}

// checkArity validates n terminals against profile, per §4.9's "count
// terminals against the kind's port profile — reject wrong arity".
func checkArity(p portProfile, n int) bool {
	if n < p.min {
		return false
	}
	if p.max != -1 && n > p.max {
		return false
	}
	return true
}

// classify returns the (outputs, inouts, inputs) terminal counts actually
// implied by n terminals under profile, resolving any -1 "n minus fixed"
// role.
func classify(p portProfile, n int) (outputs, inouts, inputs int) {
	outputs, inouts, inputs = p.outputs, p.inouts, p.inputs
	fixed := 0
	wildcard := -1
	for i, v := range []int{outputs, inouts, inputs} {
		if v == -1 {
			wildcard = i
		} else {
			fixed += v
		}
	}
	if wildcard == -1 {
		return
	}
	remainder := n - fixed
	if remainder < 0 {
		remainder = 0
	}
	switch wildcard {
	case 0:
		outputs = remainder
	case 1:
		inouts = remainder
	case 2:
		inputs = remainder
	}
	return
}
