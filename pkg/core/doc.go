// Package core defines the shared language of the xsql compiler.
//
// This package contains:
//   - Dialect descriptors (DialectConfig, IdentifierConfig, DDLConfig)
//   - Time units and interval literal styles shared by the IR and emitters
//   - The compile error taxonomy
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
