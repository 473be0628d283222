package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streed/ml-todos/internal/client"
	"github.com/streed/ml-todos/internal/ui"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive board backed by a running server",
	Long: `Drive the todo board of a running 'ml-todos serve' from the terminal.

Commands:
  list                 show every todo, newest first
  add <text>           add a todo
  rm <id>              delete a todo
  search <query>       search by meaning (empty query shows everything)
  clear                clear the search
  themes               list themes
  theme <word>         show the todos of one theme
  edit <id> <text>     replace the text of a todo
  quit                 leave the shell`,
	Annotations: map[string]string{skipStore: "true"},
	RunE:        runShell,
}

var shellServer string

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().StringVar(&shellServer, "server", "", "Base URL of the ml-todos server (default http://localhost:3000)")
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	view := ui.NewTerminalView(os.Stdout)
	controller := ui.NewController(client.NewClient(shellServer), view)

	controller.Load(ctx)
	controller.LoadThemes(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		verb, rest := splitCommand(scanner.Text())
		switch verb {
		case "":
		case "quit", "exit":
			return nil
		case "list":
			controller.Load(ctx)
		case "add":
			controller.Submit(ctx, rest)
		case "rm", "delete":
			controller.Delete(ctx, rest)
		case "search":
			controller.SearchInput(ctx, rest)
		case "clear":
			controller.ClearSearch(ctx)
		case "themes":
			controller.LoadThemes(ctx)
		case "theme":
			controller.SelectTheme(ctx, rest)
		case "edit":
			id, text := splitCommand(rest)
			card, ok := findCard(view.Cards(), id)
			if !ok {
				fmt.Printf("No todo %q on the board.\n", id)
				continue
			}
			controller.OpenEdit(card)
			controller.EditInput(ctx, text)
			controller.CloseEdit()
		default:
			fmt.Printf("Unknown command %q. Try 'list', 'add', 'search' or 'quit'.\n", verb)
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	verb, rest, _ := strings.Cut(line, " ")
	return verb, strings.TrimSpace(rest)
}

func findCard(cards []ui.Card, id string) (ui.Card, bool) {
	for _, c := range cards {
		if c.ID == id {
			return c, true
		}
	}
	return ui.Card{}, false
}
