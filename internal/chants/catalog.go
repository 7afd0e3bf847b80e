// Package chants holds the chant catalog: the built-in chants plus any
// the user adds through a TOML file.
package chants

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"
)

// catalogFile is the TOML shape of a user catalog:
//
//	[[chant]]
//	id = "radha-radha"
//	text = "राधा राधा"
//	description = "Radha Radha slowly."
//	clip = "audio/radha-slowly.wav"
type catalogFile struct {
	Chant []chantEntry `toml:"chant"`
}

type chantEntry struct {
	ID          string `toml:"id"`
	Text        string `toml:"text"`
	Description string `toml:"description"`
	Voice       string `toml:"voice"`
	Lang        string `toml:"lang"`
	Clip        string `toml:"clip"`
}

// Default returns the built-in chant catalog.
func Default() []domain.Chant {
	return []domain.Chant{
		{
			ID:          "radha-radha-musical",
			Text:        "राधा राधा",
			Description: "Authentic chant musically.",
			ClipPath:    "audio/radha-musical.wav",
		},
		{
			ID:          "radha-radha",
			Text:        "राधा राधा",
			Description: "Radha Radha slowly.",
			ClipPath:    "audio/radha-slowly.wav",
		},
		{
			ID:          "ram-ram",
			Text:        "राम राम",
			Description: "Ram Ram slowly.",
			ClipPath:    "audio/ram-ram.wav",
		},
		{
			ID:          "om-namah-shivaye",
			Text:        "ॐ नमः शिवाय",
			Description: "Deep male voice.",
			ClipPath:    "audio/om-namah-shiv.wav",
		},
		{
			ID:          "hare-krishna",
			Text:        "हरे कृष्णा",
			Description: "Gentle, calm male voice.",
			VoiceName:   "hi-IN-Wavenet-D",
			Lang:        "hi-IN",
		},
		{
			ID:          "jai-shri-ram",
			Text:        "जय श्री राम",
			Description: "Powerful male voice.",
			VoiceName:   "hi-IN-Wavenet-B",
			Lang:        "hi-IN",
		},
		{
			ID:          "waheguru",
			Text:        "वाहेगुरु",
			Description: "Clear, resonant male voice.",
			VoiceName:   "hi-IN-Wavenet-D",
			Lang:        "hi-IN",
		},
	}
}

// Catalog is an ordered, immutable set of chants.
type Catalog struct {
	chants []domain.Chant
	log    *logger.Logger
}

// Load builds a catalog from a TOML file, falling back to the built-in
// chants when the path is empty or the file does not exist.
func Load(path string, log *logger.Logger) (*Catalog, error) {
	if path == "" {
		return &Catalog{chants: Default(), log: log}, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			log.Debug("chants: no catalog at %s, using built-ins", path)
			return &Catalog{chants: Default(), log: log}, nil
		}
		return nil, fmt.Errorf("stat catalog: %w", err)
	}

	var file catalogFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	var out []domain.Chant
	for i, e := range file.Chant {
		if e.Text == "" {
			return nil, fmt.Errorf("catalog entry %d has no text", i+1)
		}
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("chant-%d", i+1)
		}
		out = append(out, domain.Chant{
			ID:          id,
			Text:        e.Text,
			Description: e.Description,
			VoiceName:   e.Voice,
			Lang:        e.Lang,
			ClipPath:    e.Clip,
		})
	}
	if len(out) == 0 {
		log.Debug("chants: catalog %s is empty, using built-ins", path)
		out = Default()
	}

	log.Info("chants: %d chants loaded", len(out))
	return &Catalog{chants: out, log: log}, nil
}

// All returns the chants in catalog order.
func (c *Catalog) All() []domain.Chant {
	out := make([]domain.Chant, len(c.chants))
	copy(out, c.chants)
	return out
}

// Len returns the number of chants.
func (c *Catalog) Len() int { return len(c.chants) }

// ByIndex returns the chant at the 1-based position users see in lists.
func (c *Catalog) ByIndex(i int) (domain.Chant, error) {
	if i < 1 || i > len(c.chants) {
		return domain.Chant{}, domain.ErrNotFound
	}
	return c.chants[i-1], nil
}

// ByID returns the chant with the given id.
func (c *Catalog) ByID(id string) (domain.Chant, error) {
	for _, chant := range c.chants {
		if chant.ID == id {
			return chant, nil
		}
	}
	return domain.Chant{}, domain.ErrNotFound
}
