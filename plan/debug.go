package plan

import (
	"github.com/davecgh/go-spew/spew"
)

// Dump renders a Plan's delegation map and field-node routing for
// operator-facing debug logs. Grounded on the teacher's own use of
// spew.Dump to inspect a federation execution plan during development.
func Dump(p *Plan) string {
	return spew.Sdump(p)
}
