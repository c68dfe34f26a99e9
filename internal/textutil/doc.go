// Package textutil holds small string coercion helpers shared by the shot
// list, the render queue, and the CLI.
//
// Shot list documents are hand-edited JSON, so booleans and resolutions often
// arrive as loosely formatted strings ("Yes", "1920X1080"). Route every such
// value through ParseBool / ParseResolution instead of re-deriving the rules at
// the call site.
package textutil
