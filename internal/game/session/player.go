package session

// Player 会话内的玩家计分状态，只能通过 Session 的方法修改
type Player struct {
	Name           string `json:"name"`
	Score          int    `json:"score"`
	BestWord       string `json:"best_word,omitempty"`
	BestWordPoints int    `json:"best_word_points"`
	NewWords       int    `json:"new_words"`
	RepeatedWords  int    `json:"repeated_words"`
}

func newPlayer(name string) *Player {
	return &Player{Name: name}
}

// apply 记入一次提交的分值。最佳单词取严格更高分，平分保留先提交的
func (p *Player) apply(word string, points int, repeated bool) {
	p.Score += points
	if repeated {
		p.RepeatedWords++
	} else {
		p.NewWords++
	}
	if p.BestWord == "" || points > p.BestWordPoints {
		p.BestWord = word
		p.BestWordPoints = points
	}
}
