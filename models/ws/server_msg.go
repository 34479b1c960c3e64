package wsmodels

type ServerMessage struct {
	ToUserID string `json:"-"`
	ID       string `json:"id"`       // notification id
	Time     string `json:"time"`     // event time
	Code     string `json:"code"`     // event code
	Title    string `json:"title"`    // event title
	Msg      string `json:"msg"`      // event text
	Priority string `json:"priority"` // high/normal
}
