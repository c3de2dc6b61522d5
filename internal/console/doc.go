// Package console implements the operator console shared by every hosted server.
//
// The console owns three things:
//   - an ordered list of command listeners; each raw input line is offered to
//     them in registration order until one returns Handled or Failed
//   - help listeners that contribute pattern/description pairs on demand
//   - serialized line output, so relayed server output and command replies
//     never interleave mid-line
//
// Lines no listener claims fall through to the built-in commands (help, quit)
// and otherwise get the unknown-command hint.
package console
