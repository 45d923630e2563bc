package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"debtors/internal/assistant"
	"debtors/pkg/services"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about the loaded data",
	Long: `Load a batch and start an interactive question-and-answer session with the
AI assistant. Each answer sees the whole conversation so far. Type "exit" or
press Ctrl+D to quit.`,
	Example: `  debtors chat --customers c.csv --invoices i.csv --payments p.csv`,
	RunE:    runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	addSourceFlags(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	asOf, err := asOfFlag(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := loadStore(ctx, cmd)
	if err != nil {
		return err
	}
	an, err := store.Analyzer()
	if err != nil {
		return err
	}
	data := an.ChatData()
	svc := store.Assistant()

	history := []services.ChatMessage{{Role: services.RoleModel, Text: assistant.ChatGreeting}}
	fmt.Println(assistant.ChatGreeting)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		history = append(history, services.ChatMessage{Role: services.RoleUser, Text: question})
		reply := svc.Chat(ctx, history, data, asOf)
		fmt.Println(reply.Text)
		if !reply.Failed {
			history = append(history, services.ChatMessage{Role: services.RoleModel, Text: reply.Text})
		} else {
			// Drop the unanswered question so the next turn starts clean.
			history = history[:len(history)-1]
		}
	}
	return scanner.Err()
}
