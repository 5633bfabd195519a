package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moviemind-ai/moviemind/internal/app"
	"github.com/moviemind-ai/moviemind/internal/chat"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive movie conversation",
	Long: `Start a REPL-style conversation with MovieMind.

The assistant answers general questions directly and looks up the local
catalog when the question names concrete criteria. Type "exit" or press
Ctrl-D to leave; "reset" clears the conversation history.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	application, err := app.New(cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer application.Close()

	fmt.Println("MovieMind ready. Ask about movies, or type \"exit\" to quit.")

	history := chat.NewHistory(cfg.Chat.HistoryWindow)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		printPrompt()
		if !scanner.Scan() {
			fmt.Println()
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "reset":
			history.Clear()
			printSuccess("Conversation history cleared")
			continue
		}

		s := newSpinner("thinking...")
		s.Start()
		reply, err := application.Assistant.Respond(cmd.Context(), history, input)
		s.Stop()
		if err != nil {
			printError("%v", err)
			continue
		}
		printBot(reply)
	}

	return scanner.Err()
}
