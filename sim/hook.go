package sim

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookPosBeforeTimestep triggers before the first pass of a timestep.
var HookPosBeforeTimestep = &HookPos{Name: "BeforeTimestep"}

// HookPosAfterTimestep triggers after a timestep has converged and the
// component states are saved.
var HookPosAfterTimestep = &HookPos{Name: "AfterTimestep"}

// HookPosBeforePass triggers before each simulation pass over a component
// group.
var HookPosBeforePass = &HookPos{Name: "BeforePass"}

// HookPosForcedConvergence triggers before the final mandatory pass of a
// cyclic group that did not stabilize within the iteration cap.
var HookPosForcedConvergence = &HookPos{Name: "ForcedConvergence"}

// HookCtx is the context that holds all the information about the site that
// a hook is triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accepts Hooks.
type Hookable interface {
	// AcceptHook registers a hook
	AcceptHook(hook Hook)
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides some utility function for other types that
// implement the Hookable interface.
type HookableBase struct {
	Hooks []Hook
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	h := new(HookableBase)
	h.Hooks = make([]Hook, 0)
	return h
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// InvokeHook triggers the registered Hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
