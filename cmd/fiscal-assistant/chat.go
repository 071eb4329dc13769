// cmd/fiscal-assistant/chat.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fiscal-assistant/internal/assistant/agent"
	"fiscal-assistant/internal/assistant/arbiter"
	"fiscal-assistant/internal/assistant/session"
)

const (
	chatBanner  = "ASSISTANT FISCAL PREMIUM - SÉNÉGAL"
	chatPrompt  = "\nVotre question fiscale : "
	chatGoodbye = "\nMerci pour votre confiance. À bientôt !"
	chatPending = "\n🔍 Consultation de la base fiscale..."

	// longest line the REPL accepts, pasted documents included
	maxChatLine = 1 << 20
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			// keep the terminal for the conversation
			if cfg.Logging.Output == "stdout" {
				cfg.Logging.Level = "error"
			}

			log := newLogger(cfg)
			defer log.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := buildAssistant(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			o, _ := a.sessions.GetOrCreate(session.NewID())
			return runChat(ctx, os.Stdin, os.Stdout, o)
		},
	}
}

func isExitCommand(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit", "q":
		return true
	}
	return false
}

// runChat reads questions line by line until an exit command or end of input.
func runChat(ctx context.Context, in io.Reader, out io.Writer, o *agent.Orchestrator) error {
	rule := strings.Repeat("=", 50)
	fmt.Fprintf(out, "\n%s\n%s\n%s\n%s\n", rule, center(chatBanner, 50), rule, arbiter.GreetingMessage)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxChatLine)
	for {
		fmt.Fprint(out, chatPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out, chatGoodbye)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case isExitCommand(input):
			fmt.Fprintln(out, chatGoodbye)
			return nil
		}

		if !agent.IsClearCommand(input) {
			fmt.Fprintln(out, chatPending)
		}

		reply, err := o.Turn(ctx, input)
		if err != nil {
			fmt.Fprintf(out, "\n%s\n", reply)
			continue
		}
		if agent.IsClearCommand(input) || reply == arbiter.GreetingMessage {
			fmt.Fprintf(out, "\n%s\n", reply)
			continue
		}
		fmt.Fprintf(out, "\n📌 Réponse : %s\n", reply)
	}
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}
