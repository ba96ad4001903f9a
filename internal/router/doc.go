// Package router maps navigation targets to views and decides, per
// navigation event, whether the session allows the view to render.
//
// The route table is declarative: an ordered list of path.Match patterns,
// each naming a view and whether it needs a session. The Guard turns a
// route and a session.Snapshot into a Decision; it holds no session state
// of its own beyond remembering which resolution it already redirected.
package router
