package remote

import "github.com/rickgao/remotecmd/internal/console"

func (r *Router) onHelp(help *console.Help) {
	switch help.Prefix {
	case "":
		help.Set("remote", "Execute remote commands")
	case "remote":
		help.Set("remote", "Show available servers")
		help.Set("remote <name>", "Execute remote commands on <name>")
		help.Set("remote <name> <command>", "Execute <command> on <name>")
	}
}
