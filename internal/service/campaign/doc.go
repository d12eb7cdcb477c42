// Package campaign implements the WhatsApp campaign lifecycle: creation,
// the start/pause/resume control state machine, streaming recipient import
// and sequential dispatch.
//
// The service depends on repository interfaces defined in this package and
// never imports from the HTTP layer. The DynamoDB implementations live in
// repository/dynamo/.
package campaign
