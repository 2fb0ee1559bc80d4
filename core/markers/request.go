package markers

import (
	"fmt"

	"github.com/artpar/mira/core/events"
)

// RequestKind tags a Request.
type RequestKind int

const (
	RequestUnknown RequestKind = iota
	RequestEventHandler
	RequestOption
	RequestRole
	RequestButton
	RequestColor
	RequestModifier
	RequestGameMode
	RequestCosmetic
)

// String returns the kind name.
func (k RequestKind) String() string {
	switch k {
	case RequestEventHandler:
		return "event_handler"
	case RequestOption:
		return "option"
	case RequestRole:
		return "role"
	case RequestButton:
		return "button"
	case RequestColor:
		return "color"
	case RequestModifier:
		return "modifier"
	case RequestGameMode:
		return "game_mode"
	case RequestCosmetic:
		return "cosmetic"
	default:
		return fmt.Sprintf("request(%d)", int(k))
	}
}

// Request is a validated registration produced by the Scanner. It is consumed
// once by the coordinator and not retained.
type Request struct {
	// Kind selects the variant.
	Kind RequestKind

	// Module is the declaring module's GUID.
	Module string

	// Entity is the declaration the request came from.
	Entity Entity

	// Marker is the marker that matched.
	Marker Marker

	// EventKind, Handler and Priority are set for RequestEventHandler.
	EventKind events.Kind
	Handler   events.Handler
	Priority  int

	// Payload carries data the rule extracted while validating
	// (the colors of a palette, for example).
	Payload any
}
