package models

import "github.com/google/uuid"

// Stages is one game: a group of stage configs sharing a guid.
type Stages struct {
	Stages []StageConfig `json:"stages" yaml:"stages"`
}

// StageConfig is a deployable unit of game content. The fields cover what the
// server needs to create a game; unknown fields are dropped.
type StageConfig struct {
	GUID          uuid.UUID    `json:"guid" yaml:"guid"`
	SUID          uuid.UUID    `json:"suid" yaml:"suid"`
	Name          string       `json:"name" yaml:"name"`
	Launch        bool         `json:"launch" yaml:"launch"`
	Script        LocalElement `json:"script" yaml:"script"`
	Tuning        LocalElement `json:"tuning" yaml:"tuning"`
	MacrosEnabled bool         `json:"macrosEnabled" yaml:"macrosEnabled"`
	EVMListener   bool         `json:"evmlistener" yaml:"evmlistener"`
}

// LocalElement points at a script or tuning payload.
type LocalElement struct {
	Link string `json:"link" yaml:"link"`
}

// GUID returns the group id of the collection, or uuid.Nil when it is empty.
func (s Stages) GUID() uuid.UUID {
	if len(s.Stages) == 0 {
		return uuid.Nil
	}
	return s.Stages[0].GUID
}

// StageKey identifies one stage.
type StageKey struct {
	GUID uuid.UUID
	SUID uuid.UUID
}

func (k StageKey) String() string {
	return k.GUID.String() + "/" + k.SUID.String()
}
