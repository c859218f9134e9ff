package service

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ActionCreateTrip is the only action the assistant can request.
const ActionCreateTrip = "create_trip"

// TripAction is a validated request to materialize a trip.
type TripAction struct {
	City        string
	Days        int
	Attractions []string
}

// Extraction is the user-facing part of a completion plus any structured payload.
type Extraction struct {
	Message     string
	Suggestions []string
	Action      *TripAction
	// Degraded is set when the completion ended like JSON but could not be parsed.
	Degraded bool
}

// ActionExtractor splits a raw completion into text, suggestions and an action.
// Extract never fails; unparseable input degrades to plain text.
type ActionExtractor interface {
	Extract(raw string) Extraction
}

// TrailingJSONExtractor reads the JSON object that ends a completion, if any.
// A trailing markdown code fence around the object is tolerated.
type TrailingJSONExtractor struct{}

var _ ActionExtractor = TrailingJSONExtractor{}

const codeFence = "```"

// envelope fields are decoded leniently: a well-formed object never fails to
// decode because of an unexpected field type.
type envelope struct {
	Suggestions json.RawMessage `json:"suggestions"`
	Action      actionName      `json:"action"`
	Params      json.RawMessage `json:"params"`
}

type actionParams struct {
	City        flexibleString `json:"city"`
	Days        flexibleInt    `json:"days"`
	Attractions flexibleNames  `json:"attractions"`
}

// Extract implements ActionExtractor.
func (TrailingJSONExtractor) Extract(raw string) Extraction {
	text := strings.TrimSpace(raw)
	plain := Extraction{Message: text, Suggestions: []string{}}

	prefix, payload, found := splitTrailingObject(text)
	if !found {
		plain.Degraded = payload != ""
		return plain
	}

	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		plain.Degraded = true
		return plain
	}

	// Stacked objects are dropped so the message never ends in JSON.
	for {
		p, _, ok := splitTrailingObject(prefix)
		if !ok {
			break
		}
		prefix = p
	}

	out := Extraction{
		Message:     prefix,
		Suggestions: decodeSuggestions(env.Suggestions),
	}

	if strings.TrimSpace(string(env.Action)) == ActionCreateTrip {
		var params actionParams
		if len(env.Params) > 0 && !isJSONNull(env.Params) {
			// A non-object params value leaves every parameter to its default.
			_ = json.Unmarshal(env.Params, &params)
		}
		names := make([]string, 0, len(params.Attractions))
		for _, a := range params.Attractions {
			if n := strings.TrimSpace(string(a)); n != "" {
				names = append(names, n)
			}
		}
		out.Action = &TripAction{
			City:        strings.TrimSpace(string(params.City)),
			Days:        int(params.Days),
			Attractions: names,
		}
	}

	return out
}

// splitTrailingObject separates a trailing JSON object, optionally wrapped in
// a code fence, from the text before it. When text looks like it ends in JSON
// but no valid object is found, found is false and payload holds the suspect
// tail.
func splitTrailingObject(text string) (prefix, payload string, found bool) {
	body := strings.TrimSpace(text)
	fenced := false
	if strings.HasSuffix(body, codeFence) {
		body = strings.TrimSpace(strings.TrimSuffix(body, codeFence))
		fenced = true
	}
	if !strings.HasSuffix(body, "}") {
		if fenced && strings.Contains(body, "{") {
			return text, body, false
		}
		return text, "", false
	}

	start := trailingObjectStart(body)
	if start < 0 {
		return text, body, false
	}

	prefix = strings.TrimSpace(body[:start])
	if fenced {
		for _, open := range []string{codeFence + "json", codeFence} {
			if strings.HasSuffix(prefix, open) {
				prefix = strings.TrimSpace(strings.TrimSuffix(prefix, open))
				break
			}
		}
	}
	return prefix, body[start:], true
}

// trailingObjectStart returns the index of the '{' that opens the object
// ending s, or -1 when s does not end in a single valid JSON object. s must end
// with '}'. Braces are matched backwards, skipping string literals, so the
// candidate is validated once.
func trailingObjectStart(s string) int {
	depth := 0
	inString := false
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c == '"' && !escaped(s, i) {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '}':
			depth++
		case '{':
			depth--
			if depth == 0 {
				if json.Valid([]byte(s[i:])) {
					return i
				}
				return -1
			}
		}
	}
	return -1
}

// escaped reports whether the byte at i is preceded by an odd number of
// backslashes.
func escaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// decodeSuggestions keeps the string entries of a suggestions array and
// ignores anything else.
func decodeSuggestions(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// flexibleInt accepts 3, 3.0 and "3".
type flexibleInt int

func (f *flexibleInt) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexibleInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*f = flexibleInt(n)
		}
		return nil
	}
	*f = 0
	return nil
}

// flexibleString accepts a string or a number; anything else is empty.
type flexibleString string

func (f *flexibleString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexibleString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexibleString(n.String())
		return nil
	}
	*f = ""
	return nil
}

// flexibleNames accepts an array of names or {name} objects. Any other value
// is treated as no names.
type flexibleNames []actionName

func (f *flexibleNames) UnmarshalJSON(data []byte) error {
	var items []actionName
	if err := json.Unmarshal(data, &items); err != nil {
		*f = nil
		return nil
	}
	*f = items
	return nil
}

// actionName accepts either {"name": "..."} or a bare string. Any other value
// decodes to an empty name.
type actionName string

func (a *actionName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = actionName(s)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		*a = actionName(obj.Name)
		return nil
	}
	*a = ""
	return nil
}
