package models

type SideSettings struct {
	AwayMode bool `json:"awayMode"`
}

type PrimePodDaily struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time"`
}

// Settings holds the engine-wide preferences. A nil TimeZone suspends all scheduling.
type Settings struct {
	TimeZone      *string       `json:"timeZone"`
	Left          SideSettings  `json:"left"`
	Right         SideSettings  `json:"right"`
	PrimePodDaily PrimePodDaily `json:"primePodDaily"`
}

func (s Settings) Away(side Side) bool {
	if side == SideRight {
		return s.Right.AwayMode
	}
	return s.Left.AwayMode
}

func DefaultSettings() Settings {
	return Settings{PrimePodDaily: PrimePodDaily{Time: "14:00"}}
}
