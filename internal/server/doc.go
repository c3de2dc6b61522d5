// Package server runs the hosted server processes.
//
// Each Server wraps one child process. Commands reach the child on stdin, one
// line per command; stdout and stderr are relayed to the console prefixed with
// the server name. A Server satisfies remote.Target, so the router can
// forward commands to it and learns about its exit through OnClose.
//
// Two labels are answered by the host itself instead of the child:
//
//	pid     print the child's process ID
//	stop    ask the child to shut down
package server
