// Package passes implements the 18 concrete transform.Pass stages that run
// after Resolve has produced an ir.Module. Each
// pass is a small struct carrying its own configuration plus a Run method
// that walks the module with
// transform.Walk or, where the rewrite is module-global rather than
// per-statement (BindingResolver, EliminateUnused, Validation), iterates
// mod's top-level slices directly.
package passes

import log "github.com/sirupsen/logrus"

// debugf logs one line per pass invocation, so a host running with
// log.SetLevel(log.DebugLevel) sees every stage announce itself.
func debugf(pass, module string) {
	log.WithField("pass", pass).Debugf("running over module %q", module)
}
