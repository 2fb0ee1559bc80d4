// Package main is the entry point for mira.
//
//	@title			Mira - Plugin Registration Introspection
//	@version		1.0
//	@description	Read-only view of loaded plugin modules, the capabilities they registered, the event bus and the diagnostic journal.
//
//	@contact.name	Mira Maintainers
//	@contact.url	https://github.com/artpar/mira/issues
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8089
//	@BasePath		/
package main

import (
	_ "github.com/artpar/mira/extensions/example"
)

func main() {
	Execute()
}
