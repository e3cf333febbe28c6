package engine

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tatianab/langquest/internal/catalog"
	"github.com/tatianab/langquest/internal/oracle"
	"github.com/tatianab/langquest/internal/vocab"
)

// applyEffects applies the effects the catalog allows to the working copy and
// returns the applied and rejected ones. Rejections never fail the turn.
func (e *Engine) applyEffects(s *session, effects []oracle.Effect) (applied, rejected []string) {
	for _, eff := range effects {
		if err := e.applyEffect(s, eff); err != nil {
			rejected = append(rejected, eff.String())
			e.log.Debug("rejected effect",
				"profile", s.state.Profile,
				"effect", eff.String(),
				"code", CodeOf(err),
				"reason", err,
			)
			continue
		}
		applied = append(applied, eff.String())
	}
	return applied, rejected
}

func (e *Engine) applyEffect(s *session, eff oracle.Effect) error {
	mod, st := s.module, s.state
	switch eff := eff.(type) {
	case oracle.Move:
		dest, err := resolveExit(mod, st.Location, eff.To)
		if err != nil {
			return err
		}
		e.enter(s, dest)

	case oracle.SetObjectState:
		o, err := findObject(s, eff.Object)
		if err != nil {
			return err
		}
		if !st.Holds(o.ID) && st.ObjectLocation(o.ID, o.Location) != st.Location {
			return &RejectedEffectError{Effect: eff.String(), Reason: "object is not here"}
		}
		if !o.HasState(eff.State) {
			return &RejectedEffectError{Effect: eff.String(), Reason: fmt.Sprintf("%s cannot be %q", o.ID, eff.State)}
		}
		st.ObjectStates[o.ID] = eff.State

	case oracle.SetNPCState:
		n, ok := mod.NPC(eff.NPC)
		if !ok {
			n, ok = findNPCByName(mod, eff.NPC, s.catalog.Articles)
		}
		if !ok {
			return &UnknownEntityError{Kind: "npc", ID: eff.NPC}
		}
		if n.Location != st.Location {
			return &RejectedEffectError{Effect: eff.String(), Reason: "character is not here"}
		}
		if !n.HasState(eff.State) {
			return &RejectedEffectError{Effect: eff.String(), Reason: fmt.Sprintf("%s cannot be %q", n.ID, eff.State)}
		}
		st.NPCStates[n.ID] = eff.State

	case oracle.Take:
		o, err := findObject(s, eff.Item)
		if err != nil {
			return err
		}
		switch {
		case st.Holds(o.ID):
			return &RejectedEffectError{Effect: eff.String(), Reason: "already carried"}
		case !o.Portable:
			return &RejectedEffectError{Effect: eff.String(), Reason: "cannot be carried"}
		case st.ObjectLocation(o.ID, o.Location) != st.Location:
			return &RejectedEffectError{Effect: eff.String(), Reason: "object is not here"}
		}
		st.Inventory = append(st.Inventory, o.ID)
		delete(st.ObjectLocations, o.ID)

	case oracle.Drop:
		o, err := findObject(s, eff.Item)
		if err != nil {
			return err
		}
		i := slices.Index(st.Inventory, o.ID)
		if i < 0 {
			return &RejectedEffectError{Effect: eff.String(), Reason: "not carried"}
		}
		st.Inventory = slices.Delete(st.Inventory, i, i+1)
		st.ObjectLocations[o.ID] = st.Location

	case oracle.SetFlag:
		if !catalog.ValidFlag(eff.Flag) {
			return &RejectedEffectError{Effect: eff.String(), Reason: "flag names are lowercase letters, digits and underscores"}
		}
		if eff.Value {
			st.Flags[eff.Flag] = true
		} else {
			delete(st.Flags, eff.Flag)
		}

	case oracle.Grammar:
		point := strings.Join(strings.Fields(strings.ToLower(eff.Point)), " ")
		if point == "" {
			return &RejectedEffectError{Effect: eff.String(), Reason: "grammar point is empty"}
		}
		gs := st.GrammarStats[point]
		gs.Total++
		if eff.Correct {
			gs.Correct++
		}
		st.GrammarStats[point] = gs

	case oracle.Award:
		if eff.Points < 1 || eff.Points > e.opts.MaxAwardPoints {
			return &RejectedEffectError{Effect: eff.String(), Reason: fmt.Sprintf("awards are 1..%d points", e.opts.MaxAwardPoints)}
		}
		st.TotalPointsEarned += eff.Points

	case oracle.Unparsed:
		return &RejectedEffectError{Effect: eff.String(), Reason: "directive not understood"}

	default:
		return &RejectedEffectError{Effect: eff.String(), Reason: "unsupported effect"}
	}
	return nil
}

// resolveExit finds where target leads from location. target is an exit
// direction or the id of the destination.
func resolveExit(mod *catalog.Module, location, target string) (string, error) {
	loc, ok := mod.Location(location)
	if !ok {
		return "", &UnknownEntityError{Kind: "location", ID: location}
	}
	if dest, ok := loc.Exits[target]; ok {
		return dest, nil
	}
	want := vocab.Fold(target)
	for _, dir := range loc.ExitDirections() {
		dest := loc.Exits[dir]
		if vocab.Fold(dir) == want || vocab.Fold(dest) == want {
			return dest, nil
		}
	}
	if _, ok := mod.Location(target); ok {
		return "", &RejectedEffectError{Effect: "move:" + target, Reason: "not an exit of " + location}
	}
	return "", &UnknownEntityError{Kind: "location", ID: target}
}

func findObject(s *session, ref string) (*catalog.WorldObject, error) {
	if o, ok := s.module.Object(ref); ok {
		return o, nil
	}
	want := vocab.Fold(vocab.StripArticle(ref, s.catalog.Articles))
	for i := range s.module.Objects {
		o := &s.module.Objects[i]
		if vocab.Fold(o.ID) == want || vocab.Fold(vocab.StripArticle(o.Name, s.catalog.Articles)) == want {
			return o, nil
		}
	}
	return nil, &UnknownEntityError{Kind: "object", ID: ref}
}

func findNPCByName(mod *catalog.Module, ref string, articles []string) (*catalog.NPC, bool) {
	want := vocab.Fold(vocab.StripArticle(ref, articles))
	for i := range mod.NPCs {
		n := &mod.NPCs[i]
		if vocab.Fold(n.ID) == want || vocab.Fold(vocab.StripArticle(n.Name, articles)) == want {
			return n, true
		}
	}
	return nil, false
}

// enter moves the player into location, marks it visited and counts its
// vocabulary and visible objects as encountered.
func (e *Engine) enter(s *session, location string) {
	st, mod := s.state, s.module
	st.Location = location
	st.MarkVisited(location)

	seen := make(map[string]bool)
	encounter := func(v *catalog.VocabItem) {
		if seen[v.ID] {
			return
		}
		seen[v.ID] = true
		st.Vocabulary.Encounter(itemOf(v))
	}
	for _, v := range mod.VocabAt(location) {
		encounter(v)
	}
	for _, o := range objectsAt(mod, st, location) {
		if v, ok := mod.Vocab(o.Word); ok {
			encounter(v)
		}
	}
}

// trackVocabulary counts module words the player typed as used and words in
// the narration as encountered.
func trackVocabulary(s *session, input, narrative string, now time.Time) {
	articles := s.catalog.Articles
	said := vocab.NewMatcher(input, articles)
	heard := vocab.NewMatcher(narrative, articles)
	for i := range s.module.Vocabulary {
		v := &s.module.Vocabulary[i]
		used := said.Contains(v.Target...)
		if used {
			s.state.Vocabulary.Use(itemOf(v), now)
		}
		if used || heard.Contains(v.Target...) {
			s.state.Vocabulary.Encounter(itemOf(v))
		}
	}
}

func itemOf(v *catalog.VocabItem) vocab.Item {
	return vocab.Item{WordID: v.ID, TargetForms: v.Target, NativeForm: v.Native}
}

// carriedName returns the display name of an inventory item, which may come
// from another module.
func carriedName(mod *catalog.Module, id string) string {
	if o, ok := mod.Object(id); ok {
		return o.Name
	}
	return id
}
