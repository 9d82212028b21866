package main

import (
	"bufio"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/wfunc/bingoserver/network"
)

var (
	serverAddr string
	heartbeat  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "bingoclient",
	Short: "Interactive bingo client for manual testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVarP(&serverAddr, "addr", "a", "localhost:8080", "server host:port")
	rootCmd.Flags().DurationVar(&heartbeat, "heartbeat", 10*time.Second, "heartbeat interval, 0 disables")
}

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, v any) error {
	var data []byte
	if v != nil {
		var err error
		if data, err = json.Marshal(v); err != nil {
			return err
		}
	}
	packet, err := network.EncodePacket(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

const usage = `commands:
  join                 join the default room
  join <room> [name]   join (or create) a room
  leave <room>
  draw <room>          draw a number now
  resync [room]
  stop <room>          stop the current round
  claim <room>         claim bingo
  status [room]
  quit`

// command turns one input line into a message id and payload.
func command(line string) (uint16, any, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, false
	}
	room := ""
	if len(fields) > 1 {
		room = fields[1]
	}
	switch fields[0] {
	case "join":
		if room == "" {
			return network.MsgTypeJoinDefaultRoom, nil, true
		}
		req := network.JoinRoomRequest{RoomID: room}
		if len(fields) > 2 {
			req.Name = strings.Join(fields[2:], " ")
		}
		return network.MsgTypeJoinRoom, req, true
	case "leave":
		return network.MsgTypeLeaveRoom, network.RoomRequest{RoomID: room}, true
	case "draw":
		return network.MsgTypeDrawNumber, network.RoomRequest{RoomID: room}, true
	case "resync":
		return network.MsgTypeResyncNumbers, network.RoomRequest{RoomID: room}, true
	case "stop":
		return network.MsgTypeStopRound, network.RoomRequest{RoomID: room}, true
	case "claim":
		return network.MsgTypeClaimWin, network.RoomRequest{RoomID: room}, true
	case "status":
		return network.MsgTypeQueryRoomStatus, network.RoomRequest{RoomID: room}, true
	}
	return 0, nil, false
}

func run() error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: serverAddr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			packet, err := network.DecodePacket(message)
			if err != nil {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			log.Printf("<- RECV (ID: %d): %s", packet.MsgID, packet.Data)
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	var beat <-chan time.Time
	if heartbeat > 0 {
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		beat = ticker.C
	}

	log.Println("Client started. Type 'help' for commands.")

	for {
		select {
		case <-done:
			return nil
		case <-beat:
			if err := send(c, network.MsgTypeHeartbeat, nil); err != nil {
				return err
			}
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return nil
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "quit" {
				return nil
			}
			msgID, payload, valid := command(line)
			if !valid {
				log.Println(usage)
				continue
			}
			if err := send(c, msgID, payload); err != nil {
				return err
			}
			log.Printf("-> SENT (ID: %d)", msgID)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
