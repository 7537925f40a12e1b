package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/DreamCats/opencommands/internal/ui"
)

// confirm asks a yes/no question on the operation's streams. It returns
// false without asking when prompts are not possible.
func (op *operation) confirm(message string) bool {
	if !op.canPrompt() {
		return false
	}
	if message == "" {
		message = "Apply changes?"
	}
	fmt.Fprintf(op.out, "%s %s ", message, ui.Hint("[y/N]"))
	reader := bufio.NewReader(op.in)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
