// Package cli is the interactive front desk shell. It wires configuration,
// logging, the local store, the backend gateway, the connectivity monitor and
// the sync coordinator, then runs a read-eval-print loop over them.
//
// Commands available before login:
//
//	help, login, setup, status, exit
//
// After login:
//
//	list <orgs|employees|visitors|admins>
//	add <org|employee|visitor|admin>
//	edit <employee-id>
//	delete <kind> <id>
//	lookup <aadhar>
//	stats [org-id]
//	export [org=<id>] [admin=<id>] [upload]
//	sync, offline, online, wipe, status, logout, exit
package cli
