package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
)

func (a *App) getStatus() string {
	if a.actingUser == nil {
		return ""
	}
	return fmt.Sprintf("(%s %s)", a.actingUser.Name, a.actingUser.AccessRank)
}

// Root runs the interactive command loop until exit or EOF.
func (a *App) Root(ctx context.Context) {

	log.Println("Board user console (type 'help' for commands)")

	for {
		fmt.Printf("userctl %s> ", a.getStatus())
		line, err := a.reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				fmt.Printf("Error: %v\n", err)
			}
			break
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Println("Available commands: login, logout, whoami, create, show, set-name, set-email, set-rank, set-avatar, avatar-url, upload-url, reset-password, verify, exit")

		case "login":
			err = a.login(ctx)
		case "logout":
			a.actingUser = nil
		case "whoami":
			a.whoami()
		case "create":
			err = a.create(ctx)
		case "show":
			err = a.show(ctx, args)
		case "set-name":
			err = a.setName(ctx, args)
		case "set-email":
			err = a.setEmail(ctx, args)
		case "set-rank":
			err = a.setRank(ctx, args)
		case "set-avatar":
			err = a.setAvatar(ctx, args)
		case "avatar-url":
			err = a.avatarURL(ctx, args)
		case "upload-url":
			err = a.uploadURL(ctx, args)
		case "reset-password":
			err = a.resetPassword(ctx, args)
		case "verify":
			err = a.verify(ctx, args)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Printf("Unknown command: %s\n", cmd)
		}

		if err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}
