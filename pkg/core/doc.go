// Package core defines the shared language of the eachof system.
//
// This package contains:
//   - Host classification (Flags)
//   - Per-host plugin registration sets (Registrations)
//   - The item type stored in views, collections and lists (Item)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
