package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/palemoky/parallel-boggle/internal/logger"
	"github.com/palemoky/parallel-boggle/internal/network/client"
	"github.com/palemoky/parallel-boggle/internal/ui/common"
)

func main() {
	transport := flag.String("transport", "rpc", "传输协议：rpc | line")
	addr := flag.String("addr", "localhost:1780", "服务器地址（line 协议使用行协议端口）")
	players := flag.Int("players", 2, "创建会话时的玩家人数，全部由 Bot 扮演")
	sessionID := flag.Int("session", 0, "加入已有会话，0 表示新建")
	name := flag.String("name", "", "加入已有会话时使用的昵称，默认随机")
	round := flag.Duration("round", 5*time.Second, "每回合提交单词的时长")
	interval := flag.Duration("interval", 200*time.Millisecond, "两次提交之间的间隔")
	level := flag.String("log", "info", "日志级别")
	flag.Parse()

	if err := logger.Init(*level, "console"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	dial := func() (client.Game, error) {
		switch *transport {
		case "rpc":
			return client.DialRPC(ctx, fmt.Sprintf("ws://%s/ws", *addr))
		case "line":
			return client.NewLineClient(*addr), nil
		default:
			return nil, fmt.Errorf("unknown transport %q", *transport)
		}
	}
	newBot := func(name string) (*client.Bot, error) {
		g, err := dial()
		if err != nil {
			return nil, err
		}
		if name == "" {
			name = client.GenerateNickname(rng)
		}
		return client.NewBot(g, name,
			client.WithRoundDuration(*round),
			client.WithSubmitInterval(*interval),
			client.WithRand(rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))),
		), nil
	}

	var err error
	if *sessionID > 0 {
		err = joinOne(ctx, newBot, *sessionID, *name)
	} else {
		err = playAll(ctx, newBot, *players)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Bot 运行失败")
	}
}

type botFactory func(name string) (*client.Bot, error)

// joinOne 单个 Bot 加入已有会话
func joinOne(ctx context.Context, newBot botFactory, id int, name string) error {
	b, err := newBot(name)
	if err != nil {
		return err
	}
	defer func() { _ = b.Game().Close() }()

	res, err := b.Join(ctx, id)
	if err != nil {
		return err
	}
	report(b.Name(), res)
	return nil
}

// playAll 第一个 Bot 创建会话，其余 Bot 加入
func playAll(ctx context.Context, newBot botFactory, players int) error {
	bots := make([]*client.Bot, 0, players)
	for range players {
		b, err := newBot("")
		if err != nil {
			return err
		}
		bots = append(bots, b)
	}
	defer func() {
		for _, b := range bots {
			_ = b.Game().Close()
		}
	}()

	owner := bots[0]
	info, err := owner.Game().CreateSession(ctx, players, owner.Name())
	if err != nil {
		return err
	}
	fmt.Println(common.TitleStyle(fmt.Sprintf("Session #%d", info.SessionID)))
	fmt.Println(common.RenderBoard(info.Board))

	results := make([]client.Result, players)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		results[0], err = owner.Play(gctx, info)
		return err
	})
	for i, b := range bots[1:] {
		g.Go(func() error {
			var err error
			results[i+1], err = b.Join(gctx, info.SessionID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, b := range bots {
		report(b.Name(), results[i])
	}
	return nil
}

func report(name string, res client.Result) {
	final := res.Final()
	fmt.Println(common.OKStyle.Render(fmt.Sprintf("%-16s score %4d  rank %d", common.TruncateName(name, 16), final.Score, final.Rank)))
}
