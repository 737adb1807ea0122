// Package codec loads per-format codec modules on demand and dispatches
// decode and encode calls to them.
//
// Supported formats are avif, jpeg (also accepted as "jpg"), jxl, png and webp.
// JPEG and PNG are handled by imaging; AVIF, JPEG XL and WebP run the
// reference C libraries compiled to WebAssembly, which is why modules are
// warmed up once when they are first loaded.
package codec
