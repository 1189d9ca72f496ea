// Package config loads and saves the application configuration.
//
// Configuration lives in ~/.easyreasy/config.toml and resolves in
// layers: built-in defaults, then the file, then EASYREASY_*
// environment variables. A missing file is fine; everything has a
// default and the local embedding provider needs no setup.
//
//	[database]
//	path = "/var/lib/easyreasy/knowledge.db"
//
//	[embedding]
//	provider = "openai"
//	model = "text-embedding-3-small"
//
//	[chunking]
//	chunk_size = 1500
//	chunk_overlap = 200
//
//	[indexing]
//	workers = 4
//	extensions = [".md", ".markdown"]
//
// Load validates the merged result and Save writes it back with
// owner-only permissions, which is what `easyreasy init` uses to
// create a starter file.
package config
