// Package migrations is the home of generated migration files. Each file is
// produced by the revision or create commands, registers its upgrade and
// downgrade handlers in init, and is compiled into the binary; the engine
// matches the files in this directory against the registry by name at run
// time.
package migrations
