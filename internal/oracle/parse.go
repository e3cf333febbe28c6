package oracle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reply is a narrator response split into prose and proposed effects.
type Reply struct {
	Narrative string
	Effects   []Effect
}

var fencedBlock = regexp.MustCompile("(?s)```(?:ya?ml)?[ \t]*\n(.*?)```")

type directives struct {
	Narrative string           `yaml:"narrative"`
	Effects   []map[string]any `yaml:"effects"`
}

// Parse extracts the narrative and the effects block from raw narrator text.
// It never fails: text it cannot read becomes Unparsed effects, and a reply
// with no directives at all is returned as plain narration.
func Parse(raw string) Reply {
	text := strings.TrimSpace(raw)

	if loc := lastEffectsBlock(text); loc != nil {
		block := text[loc[2]:loc[3]]
		narrative := strings.TrimSpace(text[:loc[0]] + "\n" + text[loc[1]:])
		var d directives
		if err := yaml.Unmarshal([]byte(block), &d); err != nil {
			return Reply{Narrative: narrative, Effects: []Effect{Unparsed{Raw: strings.TrimSpace(block)}}}
		}
		if narrative == "" {
			narrative = strings.TrimSpace(d.Narrative)
		}
		return Reply{Narrative: narrative, Effects: convert(d.Effects)}
	}

	// Whole reply written as a YAML document.
	var d directives
	if err := yaml.Unmarshal([]byte(text), &d); err == nil && strings.TrimSpace(d.Narrative) != "" {
		return Reply{Narrative: strings.TrimSpace(d.Narrative), Effects: convert(d.Effects)}
	}

	return Reply{Narrative: text}
}

func lastEffectsBlock(text string) []int {
	matches := fencedBlock.FindAllStringSubmatchIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if strings.Contains(text[m[2]:m[3]], "effects:") {
			return m
		}
	}
	return nil
}

func convert(items []map[string]any) []Effect {
	out := make([]Effect, 0, len(items))
	for _, item := range items {
		out = append(out, convertOne(item))
	}
	return out
}

func convertOne(item map[string]any) Effect {
	if len(item) != 1 {
		return unparsed(item)
	}
	for key, value := range item {
		switch strings.ToLower(key) {
		case "move", "go":
			if to, ok := str(value); ok {
				return Move{To: to}
			}
		case "set_object_state", "object_state":
			fields, ok := value.(map[string]any)
			if !ok {
				break
			}
			object, ok1 := str(fields["object"])
			state, ok2 := str(fields["state"])
			if ok1 && ok2 {
				return SetObjectState{Object: object, State: state}
			}
		case "set_npc_state", "npc_state":
			fields, ok := value.(map[string]any)
			if !ok {
				break
			}
			npc, ok1 := str(fields["npc"])
			state, ok2 := str(fields["state"])
			if ok1 && ok2 {
				return SetNPCState{NPC: npc, State: state}
			}
		case "take", "pick_up":
			if item, ok := str(value); ok {
				return Take{Item: item}
			}
		case "drop":
			if item, ok := str(value); ok {
				return Drop{Item: item}
			}
		case "set_flag", "flag":
			if flag, ok := str(value); ok {
				return SetFlag{Flag: flag, Value: true}
			}
			fields, ok := value.(map[string]any)
			if !ok {
				break
			}
			flag, ok := str(fields["flag"])
			if !ok {
				break
			}
			v := true
			if raw, present := fields["value"]; present {
				b, isBool := raw.(bool)
				if !isBool {
					break
				}
				v = b
			}
			return SetFlag{Flag: flag, Value: v}
		case "grammar":
			fields, ok := value.(map[string]any)
			if !ok {
				break
			}
			point, ok := str(fields["point"])
			correct, isBool := fields["correct"].(bool)
			if ok && isBool {
				return Grammar{Point: point, Correct: correct}
			}
		case "award":
			switch v := value.(type) {
			case int:
				return Award{Points: v}
			case string:
				if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
					return Award{Points: n}
				}
			}
		}
	}
	return unparsed(item)
}

func str(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		s = strings.TrimSpace(s)
		return s, s != ""
	case int:
		return strconv.Itoa(s), true
	}
	return "", false
}

func unparsed(item map[string]any) Effect {
	data, err := yaml.Marshal(item)
	if err != nil {
		return Unparsed{Raw: fmt.Sprint(item)}
	}
	return Unparsed{Raw: strings.TrimSpace(string(data))}
}
