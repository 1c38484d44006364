// ABOUTME: Line-oriented REPL standing in for the chat platform
// ABOUTME: Slash commands drive the registries; plain lines go through the trigger

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/parlor-bot/parlor/internal/conversation"
	"github.com/parlor-bot/parlor/internal/history"
	"github.com/parlor-bot/parlor/internal/preset"
	"github.com/parlor-bot/parlor/internal/provider"
	"github.com/parlor-bot/parlor/internal/render"
	"github.com/parlor-bot/parlor/internal/room"
	"github.com/parlor-bot/parlor/internal/trigger"
)

const replHelp = `Commands:
  /room new <name> <preset-name-or-content>   create a room
  /room del <name>...                         delete rooms
  /room rename <old> <new>                    rename a room
  /room list                                  list rooms
  /room info <name>                           show room details
  /room refresh <name>...                     clear history and busy flag
  /room model <name> <model>                  assign a model
  /room preset <name> <preset-name-or-content>  replace the preset
  /room public|private <name>                 switch visibility
  /room invite <name> <user-id> <display>     add a member (private rooms)
  /room kick <name> <user-id>                 remove a member
  /room transfer <name> <user-id> <display>   hand over ownership
  /room clear                                 delete every room
  /preset set <name> <content>                create or update a preset
  /preset del <name>                          delete a preset
  /preset list                                list presets
  /preset info <name>                         show a preset
  /history <room>                             list history entries
  /history <room> show <n>                    show one entry in full
  /history <room> edit <n> <content>          rewrite one entry
  /history <room> del <n>                     delete an entry and its pair
  /quit                                       exit

Any other line starting with a room name runs a turn in that room.`

// repl reads stdin lines and routes them like inbound platform messages.
type repl struct {
	rooms    *room.Registry
	presets  *preset.Registry
	editor   *history.Editor
	handler  *trigger.Handler
	renderer *render.Renderer
	logger   *slog.Logger
}

// localUser is the Mention the REPL operator acts as.
func localUser() room.Mention {
	name := os.Getenv("USER")
	if name == "" {
		name = "operator"
	}
	return room.Mention{UserID: "local", DisplayName: name}
}

func (p *repl) run(ctx context.Context) error {
	actor := localUser()
	fmt.Printf("Acting as %s. Type /help for commands.\n\n", actor.DisplayName)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}
		if line == "/help" {
			fmt.Println(replHelp)
			continue
		}

		var out string
		var err error
		switch {
		case strings.HasPrefix(line, "/room"):
			out, err = p.roomCommand(ctx, actor, splitArgs(line)[1:])
		case strings.HasPrefix(line, "/preset"):
			out, err = p.presetCommand(ctx, splitArgs(line)[1:])
		case strings.HasPrefix(line, "/history"):
			out, err = p.historyCommand(ctx, actor, splitArgs(line)[1:])
		default:
			out, err = p.message(ctx, actor, line)
		}

		if err != nil {
			fmt.Println(status(err))
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
}

// message routes a plain line through the trigger, exactly like an inbound
// platform message.
func (p *repl) message(ctx context.Context, actor room.Mention, line string) (string, error) {
	reply, handled := p.handler.Handle(ctx, &trigger.Message{
		UserID:    actor.UserID,
		Username:  actor.DisplayName,
		MessageID: uuid.NewString(),
		Content:   line,
	})
	if !handled {
		return "(no room by that name; /help for commands)", nil
	}
	return p.renderer.Render(reply)
}

func (p *repl) roomCommand(ctx context.Context, actor room.Mention, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: /room <subcommand>; /help for details")
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "new":
		if len(rest) < 2 {
			return "", fmt.Errorf("usage: /room new <name> <preset-name-or-content>")
		}
		r, err := p.rooms.Create(ctx, rest[0], strings.Join(rest[1:], " "), actor, "")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Room %s created (preset: %s).", r.Name, r.PresetName), nil

	case "del":
		if len(rest) == 0 {
			return "", fmt.Errorf("usage: /room del <name>...")
		}
		result := p.rooms.DeleteBatch(ctx, actor.UserID, rest)
		return batchReport("Deleted", result), nil

	case "rename":
		if len(rest) != 2 {
			return "", fmt.Errorf("usage: /room rename <old> <new>")
		}
		if err := p.rooms.Rename(ctx, actor.UserID, rest[0], rest[1]); err != nil {
			return "", err
		}
		return fmt.Sprintf("Room %s is now %s.", rest[0], rest[1]), nil

	case "list":
		return p.rooms.ListNames(ctx)

	case "info":
		if len(rest) != 1 {
			return "", fmt.Errorf("usage: /room info <name>")
		}
		return p.rooms.Describe(ctx, rest[0])

	case "refresh":
		if len(rest) == 0 {
			return "", fmt.Errorf("usage: /room refresh <name>...")
		}
		result := p.rooms.RefreshBatch(ctx, actor.UserID, rest)
		return batchReport("Refreshed", result), nil

	case "model":
		if len(rest) != 2 {
			return "", fmt.Errorf("usage: /room model <name> <model>")
		}
		if err := p.rooms.SetModel(ctx, actor.UserID, rest[0], rest[1]); err != nil {
			return "", err
		}
		return fmt.Sprintf("Room %s now uses %s.", rest[0], rest[1]), nil

	case "preset":
		if len(rest) < 2 {
			return "", fmt.Errorf("usage: /room preset <name> <preset-name-or-content>")
		}
		if err := p.rooms.SetPreset(ctx, actor.UserID, rest[0], strings.Join(rest[1:], " ")); err != nil {
			return "", err
		}
		return fmt.Sprintf("Room %s preset updated.", rest[0]), nil

	case "public", "private":
		if len(rest) != 1 {
			return "", fmt.Errorf("usage: /room %s <name>", sub)
		}
		if err := p.rooms.SetVisibility(ctx, actor.UserID, rest[0], sub); err != nil {
			return "", err
		}
		return fmt.Sprintf("Room %s is now %s.", rest[0], sub), nil

	case "invite":
		if len(rest) != 3 {
			return "", fmt.Errorf("usage: /room invite <name> <user-id> <display>")
		}
		m := room.Mention{UserID: rest[1], DisplayName: rest[2]}
		if err := p.rooms.AddMember(ctx, actor.UserID, rest[0], m); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s joined %s.", m.DisplayName, rest[0]), nil

	case "kick":
		if len(rest) != 2 {
			return "", fmt.Errorf("usage: /room kick <name> <user-id>")
		}
		if err := p.rooms.RemoveMember(ctx, actor.UserID, rest[0], rest[1]); err != nil {
			return "", err
		}
		return fmt.Sprintf("Removed %s from %s.", rest[1], rest[0]), nil

	case "transfer":
		if len(rest) != 3 {
			return "", fmt.Errorf("usage: /room transfer <name> <user-id> <display>")
		}
		m := room.Mention{UserID: rest[1], DisplayName: rest[2]}
		if err := p.rooms.TransferOwnership(ctx, actor.UserID, rest[0], m); err != nil {
			return "", err
		}
		return fmt.Sprintf("Room %s now belongs to %s.", rest[0], m.DisplayName), nil

	case "clear":
		if err := p.rooms.ClearAll(ctx); err != nil {
			return "", err
		}
		return "All rooms deleted.", nil

	default:
		return "", fmt.Errorf("unknown subcommand %q; /help for details", sub)
	}
}

func (p *repl) presetCommand(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: /preset <subcommand>; /help for details")
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "set":
		if len(rest) < 2 {
			return "", fmt.Errorf("usage: /preset set <name> <content>")
		}
		name, content := rest[0], strings.Join(rest[1:], " ")
		err := p.presets.Create(ctx, name, content)
		if errors.Is(err, preset.ErrConflict) {
			err = p.presets.Update(ctx, name, content)
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Preset %s saved.", name), nil

	case "del":
		if len(rest) != 1 {
			return "", fmt.Errorf("usage: /preset del <name>")
		}
		if err := p.presets.Delete(ctx, rest[0]); err != nil {
			return "", err
		}
		return fmt.Sprintf("Preset %s deleted.", rest[0]), nil

	case "list":
		return p.presets.ListNames(ctx)

	case "info":
		if len(rest) != 1 {
			return "", fmt.Errorf("usage: /preset info <name>")
		}
		return p.presets.Describe(ctx, rest[0])

	default:
		return "", fmt.Errorf("unknown subcommand %q; /help for details", sub)
	}
}

func (p *repl) historyCommand(ctx context.Context, actor room.Mention, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: /history <room> [show|edit|del <n> ...]")
	}

	roomName := args[0]
	if len(args) == 1 {
		return p.editor.View(ctx, roomName, actor.UserID)
	}

	sub, rest := args[1], args[2:]
	if len(rest) == 0 {
		return "", fmt.Errorf("usage: /history <room> %s <n>", sub)
	}
	index, err := strconv.Atoi(rest[0])
	if err != nil {
		return "", fmt.Errorf("entry number must be an integer, got %q", rest[0])
	}

	switch sub {
	case "show":
		return p.editor.ViewEntry(ctx, roomName, actor.UserID, index)

	case "edit":
		if len(rest) < 2 {
			return "", fmt.Errorf("usage: /history <room> edit <n> <content>")
		}
		if err := p.editor.Edit(ctx, roomName, actor.UserID, index, strings.Join(rest[1:], " ")); err != nil {
			return "", err
		}
		return fmt.Sprintf("Entry %d rewritten.", index), nil

	case "del":
		if err := p.editor.Delete(ctx, roomName, actor.UserID, index); err != nil {
			return "", err
		}
		return fmt.Sprintf("Entry %d and its pair deleted.", index), nil

	default:
		return "", fmt.Errorf("unknown subcommand %q; /help for details", sub)
	}
}

// batchReport summarizes a batch result for the operator.
func batchReport(verb string, result *room.BatchResult) string {
	var b strings.Builder
	if len(result.Succeeded) > 0 {
		fmt.Fprintf(&b, "%s: %s", verb, strings.Join(result.Succeeded, ", "))
	}
	for _, f := range result.Failed {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: not %s (%s)", f.Name, strings.ToLower(verb), status(f.Reason))
	}
	if b.Len() == 0 {
		return "Nothing to do."
	}
	return b.String()
}

// status maps service errors to operator-facing one-liners.
func status(err error) string {
	switch {
	case errors.Is(err, room.ErrNotExists):
		return "No room by that name."
	case errors.Is(err, room.ErrConflict):
		return "That room name is taken."
	case errors.Is(err, room.ErrForbidden):
		return "Only the room owner can do that."
	case errors.Is(err, room.ErrInvalidState):
		return "The room is already in that state."
	case errors.Is(err, room.ErrNotMember):
		return "That user is not in the room."
	case errors.Is(err, room.ErrAlreadyMember):
		return "That user is already in the room."
	case errors.Is(err, preset.ErrNotExists):
		return "No preset by that name."
	case errors.Is(err, preset.ErrConflict):
		return "That preset name is taken."
	case errors.Is(err, history.ErrInvalidArgument):
		return "That entry cannot be edited or deleted."
	case errors.Is(err, history.ErrOutOfRange):
		return "No history entry with that number."
	case errors.Is(err, conversation.ErrBusy):
		return "The room is still replying to the previous message."
	case errors.Is(err, provider.ErrFailure):
		return provider.FailureMessage
	default:
		return err.Error()
	}
}

// splitArgs splits a command line on whitespace.
func splitArgs(line string) []string {
	return strings.Fields(line)
}
