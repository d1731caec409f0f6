package domain

// Session holds the bearer credential for the current user. A zero Session
// is an anonymous one.
type Session struct {
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
}

func (s Session) Authenticated() bool {
	return s.Token != ""
}
