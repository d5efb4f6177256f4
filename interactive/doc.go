// Package interactive is the full-screen terminal console for a compository.
//
// The console connects to the local Holochain runtime, then routes between
// a home screen (installed DNAs, composition, discovery), the display of one
// installed DNA, and a not-found panel. Logs and history are reachable from
// anywhere. Launch with: compository ui
package interactive
