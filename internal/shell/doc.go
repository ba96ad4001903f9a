// Package shell implements the interactive datamart shell.
//
// The shell opens the dashboard (or the login page, when there is no
// session) and then reads commands with readline: history, tab completion
// and Ctrl+R search included. Navigation commands render pages through the
// router, so the same access rules apply as for one-shot commands. The
// prompt follows the session status:
//
//	datamart [LOGGED OUT] » login ada@example.com
//	Password:
//	✓ Logged in as Ada Lovelace
//	datamart Ada Lovelace » explore sensor quality=high
//
// Commands implement Command and are registered by name in a Registry,
// which also resolves aliases such as "?" for help and "go" for open.
package shell
