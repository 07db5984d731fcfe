// Package registry provides the central "glue" for compiled-in modules.
//
// The Registry maps the type names used in deployment descriptors (e.g.
// `source = "button_driver"`) to the Go factories that build those modules.
// Every module package exposes a Module value whose Register method adds its
// factories here.
//
// During application startup the registry is populated and then validated
// against the loaded deployment, so a descriptor that names a module type
// nobody compiled in is rejected before anything runs.
package registry
