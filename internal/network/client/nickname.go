package client

import (
	"math/rand/v2"
	"strconv"
)

// 昵称词库
var (
	adjectives = []string{
		"brave", "clever", "happy", "sneaky", "swift",
		"calm", "lucky", "bold", "quiet", "witty",
	}

	nouns = []string{
		"panda", "tiger", "otter", "fox", "koala",
		"corgi", "hedgehog", "squirrel", "raccoon", "alpaca",
	}
)

// GenerateNickname 生成随机昵称，带数字后缀以减少同局重名
func GenerateNickname(rng *rand.Rand) string {
	adj := adjectives[rng.IntN(len(adjectives))]
	noun := nouns[rng.IntN(len(nouns))]
	return adj + "_" + noun + strconv.Itoa(rng.IntN(1000))
}
