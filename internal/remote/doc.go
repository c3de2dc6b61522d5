// Package remote routes console commands to hosted servers.
//
// The Router registers two command listeners on the console, in this order:
//
//  1. the focus listener: while a server is focused every line goes to it
//     verbatim, except "exit" which clears the focus
//  2. the dispatch listener: interprets the remote command family
//
//	remote                     list servers
//	remote <name>              focus <name>
//	remote <name> <command>    run <command> once on <name>
//
// Focus is one value per Router, shared by everyone typing into the console.
// Naming a server that is not registered is a hard error (ErrInvalidServer)
// returned from console dispatch, never a printed hint.
package remote
