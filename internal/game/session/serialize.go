package session

import (
	"time"

	"github.com/samber/lo"

	"github.com/palemoky/parallel-boggle/internal/network/server/storage"
)

// ToSessionData 将 Session 转换为可序列化的 SessionData
func (s *Session) ToSessionData() *storage.SessionData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &storage.SessionData{
		ID:              s.ID,
		State:           s.state.String(),
		Board:           s.Board.Spec(),
		Owner:           s.Owner,
		RequiredPlayers: s.Required,
		RoundsCompleted: s.roundsCompleted,
		Players: lo.Map(s.order, func(name string, _ int) storage.PlayerData {
			p := s.players[name]
			return storage.PlayerData{
				Name:           p.Name,
				Score:          p.Score,
				BestWord:       p.BestWord,
				BestWordPoints: p.BestWordPoints,
				NewWords:       p.NewWords,
				RepeatedWords:  p.RepeatedWords,
			}
		}),
		SolutionSize: len(s.solution),
		CreatedAt:    s.createdAt.Unix(),
		UpdatedAt:    time.Now().Unix(),
	}
}
