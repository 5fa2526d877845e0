package entity

type Player struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname,omitempty"`
	Color    string `json:"color,omitempty"`
}
