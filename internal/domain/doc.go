// Package domain defines the core business types for the vendorhub admin
// consoles: campaigns, recipients, message templates, admin sessions and
// login rate-limit records.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No SDK clients, no http.Request, no context.Context in struct fields
//   - JSON/DynamoDB tags are allowed (they're metadata, not behavior)
//   - Validation methods are allowed (they're pure functions on the type)
//   - Constants and enums belong here
package domain
