package app

import (
	"github.com/wheelforge/wheelforge/internal/registry"
	"github.com/wheelforge/wheelforge/modules/auditwheel"
	"github.com/wheelforge/wheelforge/modules/dockerrun"
	"github.com/wheelforge/wheelforge/modules/pipwheel"
	"github.com/wheelforge/wheelforge/modules/pythonbuild"
	"github.com/wheelforge/wheelforge/modules/qemuregister"
	"github.com/wheelforge/wheelforge/modules/script"
	"github.com/wheelforge/wheelforge/modules/twine"
)

// coreModules returns the built-in step runner modules.
func coreModules() []registry.Module {
	return []registry.Module{
		&script.Module{},
		&pythonbuild.Module{},
		&pipwheel.Module{},
		&auditwheel.Module{},
		&twine.Module{},
		&qemuregister.Module{},
		&dockerrun.Module{},
	}
}
