package cache

import (
	"github.com/valyala/fastjson"
)

// entryFields is the fixed set of indexed columns extracted from a raw
// audit-log payload.
type entryFields struct {
	date        string
	timestamp   string
	eventType   string
	category    string
	action      string
	source      string
	outcomeType string
	actorType   string
	actorID     string
	environment string
	clientIP    string
	host        string
	sessionID   string
	objectType  string
}

// str walks the given key path and stringifies the value at the end of
// it. Any missing, null, or non-traversable step degrades to "". The
// API's responses deviate from the documented schema often enough that
// extraction must never fail a record.
func str(v *fastjson.Value, keys ...string) string {
	if v == nil {
		return ""
	}
	sv := v.Get(keys...)
	if sv == nil {
		return ""
	}
	switch sv.Type() {
	case fastjson.TypeString:
		b, err := sv.StringBytes()
		if err != nil {
			return ""
		}
		return string(b)
	case fastjson.TypeNull, fastjson.TypeObject, fastjson.TypeArray:
		return ""
	default:
		// Numbers and booleans keep their JSON representation.
		return sv.String()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// extractFields pulls the indexed columns out of a parsed payload.
//
// Extraction works on the generic JSON tree rather than a strict schema,
// with camelCase/snake_case fallbacks for fields the API has been seen
// emitting both ways:
//
//	object.actor.identifier.value  -> actor_id
//	object.actor.type              -> actor_type
//	object.outcome.type            -> outcome_type
//	object.context.clientIp        -> client_ip
//	object.context.environment     -> environment
//	object.context.host            -> host
//	object.context.sessionId       -> session_id
//	object.type                    -> object_type
func extractFields(v *fastjson.Value) entryFields {
	obj := v.Get("object")

	return entryFields{
		date:        str(v, "date"),
		timestamp:   str(v, "timestamp"),
		eventType:   firstNonEmpty(str(v, "eventType"), str(v, "event_type")),
		category:    str(v, "category"),
		action:      str(v, "action"),
		source:      str(v, "source"),
		outcomeType: str(obj, "outcome", "type"),
		actorType:   str(obj, "actor", "type"),
		actorID:     str(obj, "actor", "identifier", "value"),
		environment: str(obj, "context", "environment"),
		clientIP:    firstNonEmpty(str(obj, "context", "clientIp"), str(obj, "context", "client_ip")),
		host:        str(obj, "context", "host"),
		sessionID:   firstNonEmpty(str(obj, "context", "sessionId"), str(obj, "context", "session_id")),
		objectType:  str(obj, "type"),
	}
}
