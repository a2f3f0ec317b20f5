package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/sweetpotato0/ai-lawdesk/consult"
	"github.com/sweetpotato0/ai-lawdesk/middleware/errorhandler"
	"github.com/sweetpotato0/ai-lawdesk/session"
)

var flagConversation string

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "対話形式で法律相談を行う",
		RunE:  runChat,
	}
	cmd.Flags().StringVar(&flagConversation, "conversation", "", "resume the conversation with this id")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	id := flagConversation
	if id == "" {
		id = uuid.NewString()
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "会話ID: %s\n%s\n(終了するには /exit と入力してください)\n\n", id, consult.WelcomeText)
	return chatLoop(ctx, a.manager, id, cmd.InOrStdin(), out)
}

// chatLoop reads one message per line and streams each reply to out. It
// returns at end of input, on /exit, or when ctx is cancelled.
func chatLoop(ctx context.Context, mgr *session.Manager, id string, in io.Reader, out io.Writer) error {
	lines, scanErr := readLines(ctx, in)
	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return <-scanErr
			}
			line = strings.TrimSpace(l)
		}
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		}

		if err := relay(ctx, mgr, id, line, out); err != nil {
			fmt.Fprintln(out, errorhandler.Message(err))
		}
		fmt.Fprintln(out)
	}
}

// readLines scans in on its own goroutine so a blocked read does not delay
// cancellation. The error channel receives once, after lines is closed.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

func relay(ctx context.Context, mgr *session.Manager, id, text string, out io.Writer) error {
	reply, err := mgr.Send(ctx, id, text)
	if err != nil {
		return err
	}
	for fragment, err := range reply.Fragments() {
		if err != nil {
			fmt.Fprintln(out)
			return err
		}
		fmt.Fprint(out, fragment)
	}
	fmt.Fprintln(out)
	return nil
}
