// Package bridge connects a presentation layer to the engine over a
// websocket, using the plugin message protocol:
//
//	get-component-set           -> component-set-data {data: [...]}
//	gen-dummy {nodeId, textDummy} -> gen-dummy-done {nodeId}
//	navigate {nodeId}           -> (host viewport moves)
//
// Terminal generation failures are reported as notify {message}. Generation
// requests are queued and served one at a time; a well-behaved UI still
// waits for gen-dummy-done before sending the next gen-dummy.
package bridge

import (
	"github.com/roach88/variantforge/internal/catalog"
	"github.com/roach88/variantforge/internal/document"
)

// Message types.
const (
	TypeGetComponentSet  = "get-component-set"
	TypeComponentSetData = "component-set-data"
	TypeGenDummy         = "gen-dummy"
	TypeGenDummyDone     = "gen-dummy-done"
	TypeNavigate         = "navigate"
	TypeNotify           = "notify"
)

// Inbound is any message sent by the UI.
type Inbound struct {
	Type      string          `json:"type"`
	NodeID    document.NodeID `json:"nodeId,omitempty"`
	TextDummy int             `json:"textDummy,omitempty"`
}

// ComponentSetData answers get-component-set.
type ComponentSetData struct {
	Type string            `json:"type"`
	Data []catalog.Summary `json:"data"`
}

// GenDummyDone signals that a generation request finished.
type GenDummyDone struct {
	Type   string          `json:"type"`
	NodeID document.NodeID `json:"nodeId"`
}

// Notify carries a user-visible notice.
type Notify struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func notify(msg string) Notify {
	return Notify{Type: TypeNotify, Message: msg}
}
