package client

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/parallel-boggle/internal/logger"
	"github.com/palemoky/parallel-boggle/internal/protocol"
	"github.com/palemoky/parallel-boggle/internal/protocol/codec"
)

// readPump 从服务器读取消息
func (c *RPCClient) readPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		_ = c.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("读取错误")
			}
			return
		}

		msg, err := codec.Decode(data)
		if err != nil {
			log.Warn().Err(err).Msg("消息解析错误")
			continue
		}

		switch {
		case msg.Type == protocol.MsgConnected:
			// 处理连接成功消息
			if p, err := codec.ParsePayload[protocol.ConnectedPayload](msg); err == nil {
				c.ConnectionID = p.ConnectionID
				c.RoundSeconds = p.RoundSeconds
			}
			close(c.ready)
			codec.PutMessage(msg)
		case msg.Type == protocol.MsgPong:
			// 处理 pong 消息计算延迟
			if p, err := codec.ParsePayload[protocol.PongPayload](msg); err == nil {
				c.Latency.Store(time.Now().UnixMilli() - p.ClientTimestamp)
			}
			if !c.deliver(msg) {
				codec.PutMessage(msg)
			}
		case msg.ID == 0:
			log.Warn().Str("type", string(msg.Type)).Msg("收到无 ID 的服务端消息")
			codec.PutMessage(msg)
		default:
			if !c.deliver(msg) {
				log.Debug().Uint64("id", msg.ID).Msg("丢弃已取消请求的响应")
				codec.PutMessage(msg)
			}
		}
	}
}

// writePump 向服务器写入消息
func (c *RPCClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
