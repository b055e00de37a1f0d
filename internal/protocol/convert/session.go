package convert

import (
	"github.com/samber/lo"

	"github.com/palemoky/parallel-boggle/internal/game/session"
	"github.com/palemoky/parallel-boggle/internal/protocol"
)

// --- Session conversion ---

// PlayerToInfo 玩家转换为协议结构
func PlayerToInfo(p session.Player) protocol.PlayerInfo {
	return protocol.PlayerInfo{
		Name:           p.Name,
		Score:          p.Score,
		BestWord:       p.BestWord,
		BestWordPoints: p.BestWordPoints,
		NewWords:       p.NewWords,
		RepeatedWords:  p.RepeatedWords,
	}
}

// SnapshotToInfo 会话快照转换为协议结构
func SnapshotToInfo(s *session.Snapshot) protocol.SessionInfo {
	return protocol.SessionInfo{
		SessionID:        s.ID,
		Board:            s.Rows,
		Solution:         s.Solution,
		Players:          lo.Map(s.Players, func(p session.Player, _ int) protocol.PlayerInfo { return PlayerToInfo(p) }),
		Owner:            s.Owner,
		RequiredPlayers:  s.RequiredPlayers,
		RoundsCompleted:  s.RoundsCompleted,
		RoundsPerSession: s.RoundsPerSession,
		State:            s.State,
	}
}

// ResponseToStats 统计结果转换为协议结构
func ResponseToStats(r session.Response) protocol.StatsInfo {
	return protocol.StatsInfo{
		LatestPoints:    r.LatestPoints,
		Score:           r.Score,
		HighScore:       r.HighScore,
		Rank:            r.Rank,
		RoundsCompleted: r.Round,
		Finished:        r.Finished,
	}
}

// StatsToResponse 协议结构还原为统计结果
func StatsToResponse(s protocol.StatsInfo) session.Response {
	return session.Response{
		LatestPoints: s.LatestPoints,
		Score:        s.Score,
		HighScore:    s.HighScore,
		Rank:         s.Rank,
		Round:        s.RoundsCompleted,
		Finished:     s.Finished,
	}
}
