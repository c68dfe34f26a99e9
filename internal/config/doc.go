// Package config loads, normalizes, and validates renderq configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file next to the config,
// and honours environment overrides such as RENDERQ_BLENDER. The Config type
// centralizes every knob the workers and CLI need: where the shot list and
// render queue live, how Blender is invoked, and the worker polling cadence.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
