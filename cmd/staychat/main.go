package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/stayloop/stayloop-go/internal/api"
	chatstate "github.com/stayloop/stayloop-go/internal/chat"
	config "github.com/stayloop/stayloop-go/internal/config/client"
	"github.com/stayloop/stayloop-go/internal/domain/chat"
	"github.com/stayloop/stayloop-go/internal/obs"
	"github.com/stayloop/stayloop-go/internal/realtime"
	"github.com/stayloop/stayloop-go/internal/session"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "path to yaml config (env vars override)")
		email    = flag.String("email", "", "account email")
		password = flag.String("password", "", "account password")
		peer     = flag.String("peer", "", "user id to chat with")
		convID   = flag.Int64("conversation", 0, "conversation id for outbound messages")
	)
	flag.Parse()
	if *email == "" || *password == "" || *peer == "" {
		flag.Usage()
		os.Exit(2)
	}

	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(obs.LogConfig{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Component: "staychat"})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	// session + api
	sess := session.NewManager(session.NewMemoryStore(), api.NewRefreshCaller(cfg.API, l), l)
	expired := func() { l.Warn("session expired, log in again") }
	client := api.New(cfg.API, sess, expired, l)

	if _, err := client.Login(root, *email, *password); err != nil {
		l.Fatal("login", zap.Error(err))
	}
	l.Info("logged in", zap.String("user", sess.UserID()), zap.String("role", sess.Role()))

	// realtime
	rt := realtime.NewManager(cfg.Realtime, sess, nil, l)
	if err := rt.Connect(root, *peer); err != nil {
		l.Fatal("connect", zap.Error(err))
	}
	defer rt.Disconnect()

	state := chatstate.NewState()
	if *convID != 0 {
		state.SetCurrent(*convID)
		conv, err := client.GetConversation(root, *convID, 0, 0)
		if err != nil {
			l.Warn("history load", zap.Error(err))
		} else {
			state.SetHistory(conv.Messages)
			for _, m := range state.Messages() {
				printMessage(m)
			}
		}
	}

	msgs, cancel := rt.Messages()
	defer cancel()
	go func() {
		for m := range msgs {
			if state.Append(m) {
				printMessage(m)
			}
		}
	}()

	// stdin -> outbound
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-root.Done():
			l.Info("bye")
			return
		case line, ok := <-lines:
			if !ok {
				l.Info("bye")
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			out := chat.Outbound{RecipientID: *peer, Content: line, ConversationID: *convID}
			if err := rt.Send(out); err != nil {
				l.Warn("send", zap.Error(err), zap.Int("pending", len(rt.PendingMessages())))
			}
		}
	}
}

func printMessage(m chat.Message) {
	fmt.Printf("[%s] %s: %s\n", m.SentAt.Format("15:04:05"), m.SenderID, m.Content)
}
