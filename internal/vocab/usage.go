package vocab

import "time"

// Item is the catalog description of a vocabulary entry.
type Item struct {
	WordID      string
	TargetForms []string
	NativeForm  string
}

func (p *Progress) track(item Item) WordProgress {
	if p.Words == nil {
		p.Words = make(map[string]WordProgress)
	}
	if wp, ok := p.Words[item.WordID]; ok {
		return Upgrade(wp)
	}
	return WordProgress{
		Version:     CurrentVersion,
		WordID:      item.WordID,
		TargetForms: append([]string(nil), item.TargetForms...),
		NativeForm:  item.NativeForm,
		Stage:       StageNew,
		SRSEase:     DefaultEase,
	}
}

// Encounter records that item appeared in narration or in the scene.
func (p *Progress) Encounter(item Item) {
	wp := p.track(item)
	wp.TimesSeenInContext++
	p.Words[item.WordID] = wp
}

// Use records that the player produced item correctly.
func (p *Progress) Use(item Item, now time.Time) {
	wp := p.track(item)
	wp.TimesUsedCorrectly++
	wp.LastUsed = now
	p.Words[item.WordID] = wp
}

// MarkSurfaced bumps the due counter of every listed word.
func (p *Progress) MarkSurfaced(wordIDs ...string) {
	for _, id := range wordIDs {
		wp, ok := p.Get(id)
		if !ok {
			continue
		}
		wp.SRSDueCount++
		p.Words[id] = wp
	}
}

// Stats summarises a profile's vocabulary.
type Stats struct {
	Due         int `json:"due" yaml:"due"`
	Encountered int `json:"encountered" yaml:"encountered"`
	Learning    int `json:"learning" yaml:"learning"`
	Known       int `json:"known" yaml:"known"`
}

// Summarize counts words per stage and how many are due at now.
func Summarize(p Progress, now time.Time) Stats {
	s := Stats{Encountered: len(p.Words)}
	for _, wp := range p.Words {
		wp = Upgrade(wp)
		switch wp.Stage {
		case StageLearning:
			s.Learning++
		case StageKnown:
			s.Known++
		}
		if !wp.SRSNextReview.After(now) {
			s.Due++
		}
	}
	return s
}

// CountUsed reports how many distinct words were used correctly at least once.
func CountUsed(p Progress) int {
	n := 0
	for _, wp := range p.Words {
		if wp.TimesUsedCorrectly > 0 {
			n++
		}
	}
	return n
}

// CountKnown reports how many words reached the known stage.
func CountKnown(p Progress) int {
	n := 0
	for _, wp := range p.Words {
		if wp.Stage == StageKnown {
			n++
		}
	}
	return n
}
