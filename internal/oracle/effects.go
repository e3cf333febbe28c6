package oracle

import "fmt"

// Effect is a world change proposed by the narrator. The concrete types are
// the only implementations; nothing outside this package can add more.
type Effect interface {
	fmt.Stringer
	effect()
}

// Move proposes walking through an exit. To is a direction or a location id.
type Move struct {
	To string
}

// SetObjectState proposes changing an object's state, e.g. opening a door.
type SetObjectState struct {
	Object string
	State  string
}

// SetNPCState proposes changing a character's state or mood.
type SetNPCState struct {
	NPC   string
	State string
}

// Take proposes moving an object from the scene into the inventory.
type Take struct {
	Item string
}

// Drop proposes leaving a carried object in the current location.
type Drop struct {
	Item string
}

// SetFlag proposes setting a story flag.
type SetFlag struct {
	Flag  string
	Value bool
}

// Grammar reports whether the player used a grammar point correctly.
type Grammar struct {
	Point   string
	Correct bool
}

// Award proposes a small bonus for good language use.
type Award struct {
	Points int
}

// Unparsed is a directive that could not be understood.
type Unparsed struct {
	Raw string
}

func (Move) effect()           {}
func (SetObjectState) effect() {}
func (SetNPCState) effect()    {}
func (Take) effect()           {}
func (Drop) effect()           {}
func (SetFlag) effect()        {}
func (Grammar) effect()        {}
func (Award) effect()          {}
func (Unparsed) effect()       {}

func (e Move) String() string           { return "move:" + e.To }
func (e SetObjectState) String() string { return fmt.Sprintf("object:%s=%s", e.Object, e.State) }
func (e SetNPCState) String() string    { return fmt.Sprintf("npc:%s=%s", e.NPC, e.State) }
func (e Take) String() string           { return "take:" + e.Item }
func (e Drop) String() string           { return "drop:" + e.Item }
func (e SetFlag) String() string        { return fmt.Sprintf("flag:%s=%t", e.Flag, e.Value) }
func (e Grammar) String() string        { return fmt.Sprintf("grammar:%s=%t", e.Point, e.Correct) }
func (e Award) String() string          { return fmt.Sprintf("award:%d", e.Points) }
func (e Unparsed) String() string       { return "unparsed:" + e.Raw }
