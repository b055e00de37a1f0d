package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/parallel-boggle/internal/ui/common"
)

// 控制台命令
const (
	cmdPrintStatus  = "print status"
	cmdPrintRecords = "print records"
	cmdSaveRecords  = "save records"
	cmdLoadRecords  = "load records"
	cmdClearRecords = "clear records"
	cmdStopServer   = "stop server"
)

// Console 标准输入上的管理控制台
type Console struct {
	server *Server
	out    io.Writer
}

// NewConsole 创建控制台
func NewConsole(s *Server, out io.Writer) *Console {
	return &Console{server: s, out: out}
}

// Run 逐行读取命令直到输入结束、ctx 结束或收到 stop server
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	c.println(common.TitleStyle("🛠  管理控制台") + common.GrayStyle.Render("  commands: "+strings.Join([]string{
		cmdPrintStatus, cmdPrintRecords, cmdSaveRecords, cmdLoadRecords, cmdClearRecords, cmdStopServer,
	}, " | ")))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-lines:
			if !ok {
				return nil
			}
			if stop := c.Execute(ctx, raw); stop {
				return nil
			}
		}
	}
}

// Execute 执行一条命令，返回是否应当退出
func (c *Console) Execute(ctx context.Context, raw string) bool {
	cmd := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	s := c.server

	switch cmd {
	case "":
	case cmdPrintStatus:
		report := s.StatusReport()
		c.println(common.RenderStatus(report.Online, report.Sessions))
	case cmdPrintRecords:
		c.println(common.RenderRecords(s.records.Snapshot()))
	case cmdSaveRecords:
		c.result("records saved", s.records.Save(ctx))
	case cmdLoadRecords:
		err := s.records.Load(ctx)
		c.result("records loaded", err)
		if err == nil {
			c.println(common.RenderRecords(s.records.Snapshot()))
		}
	case cmdClearRecords:
		s.records.Clear()
		c.result("records cleared", nil)
	case cmdStopServer:
		log.Info().Msg("🛑 控制台请求停止服务器")
		c.result("stopping server", nil)
		s.Stop()
		return true
	default:
		c.result("", errors.New("unknown command: "+raw))
	}
	return false
}

func (c *Console) result(ok string, err error) {
	if err != nil {
		c.println(common.ErrorStyle.Render("✗ " + err.Error()))
		return
	}
	c.println(common.OKStyle.Render("✓ " + ok))
}

func (c *Console) println(s string) {
	_, _ = fmt.Fprintln(c.out, s)
}
