package records

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const snapshotVersion = 1

// Encode 将快照编码为 google.protobuf.Struct 二进制
func Encode(snap Snapshot) ([]byte, error) {
	st, err := structpb.NewStruct(map[string]any{
		"version":         snapshotVersion,
		"best_word":       snap.BestWord,
		"best_word_score": snap.BestWordScore,
		"high_score":      snap.HighScore,
		"high_scorer":     snap.HighScorer,
		"games_completed": snap.GamesCompleted,
		"new_words":       snap.NewWords,
		"repeated_words":  snap.RepeatedWords,
	})
	if err != nil {
		return nil, fmt.Errorf("构建记录快照失败: %w", err)
	}
	return proto.Marshal(st)
}

// Decode 解码 Encode 的输出
func Decode(blob []byte) (Snapshot, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(blob, &st); err != nil {
		return Snapshot{}, fmt.Errorf("解析记录快照失败: %w", err)
	}

	fields := st.GetFields()
	if v := int(fields["version"].GetNumberValue()); v != snapshotVersion {
		return Snapshot{}, fmt.Errorf("不支持的记录快照版本 %d", v)
	}
	num := func(key string) int { return int(fields[key].GetNumberValue()) }

	return Snapshot{
		BestWord:       fields["best_word"].GetStringValue(),
		BestWordScore:  num("best_word_score"),
		HighScore:      num("high_score"),
		HighScorer:     fields["high_scorer"].GetStringValue(),
		GamesCompleted: num("games_completed"),
		NewWords:       num("new_words"),
		RepeatedWords:  num("repeated_words"),
	}, nil
}
