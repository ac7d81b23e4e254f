package common

import "errors"

var ErrModulePaused = errors.New("module paused")

// Module identifiers recognised by the pause view.
const (
	ModuleStipend    = "stipend"
	ModuleMembership = "membership"
	ModuleToken      = "token"
)

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
