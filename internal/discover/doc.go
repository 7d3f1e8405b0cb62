// Package discover locates plan files below a search root.
//
// Discovery is lazy: [Local.Files] returns an iterator that walks the tree
// and yields matching paths one at a time, so a consumer that aborts early
// stops the walk.
package discover
