// Copyright © 2016 Sidharth Kshatriya
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sidkshatriya/tgdb/internal/tgdb"
)

// driveCmd is a headless test/demo driver for the Core: a readline REPL
// that submits console commands and prints whatever comes back, with no
// curses front end involved. Grounded on
// original_source/lib/tgdb/driver.cpp's rlctx_send_user_command/tab_completion/
// driver_prompt_change trio -- this is the same shape, replacing tgdb_*
// C calls with Core methods and rline with chzyer/readline.
var driveCmd = &cobra.Command{
	Use:   "drive <inferior> [inferior-args...]",
	Short: "Run tgdb's core against a real gdb, driven from a plain readline prompt",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDrive(args); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	RootCmd.AddCommand(driveCmd)
}

var (
	consoleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	eventStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("142"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func runDrive(args []string) error {
	gdbExecutable := viper.GetString("with-gdb")
	verbose := viper.GetBool("verbose")

	info, err := tgdb.FindGdb(gdbExecutable)
	if err != nil {
		return err
	}

	logger, err := tgdb.NewLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sup, err := tgdb.StartGdb(info.Path, append([]string{"--args"}, args...)...)
	if err != nil {
		return err
	}
	defer sup.Close()

	inferiorTTY, err := tgdb.NewInferiorTTY()
	if err != nil {
		return err
	}
	defer inferiorTTY.Close()

	rl, err := readline.NewEx(&readline.Config{Prompt: promptStyle.Render("(gdb) ")})
	if err != nil {
		return err
	}
	defer rl.Close()

	core := tgdb.NewCore(sup, tgdb.UiCallbacks{
		ConsoleOutput: func(text string) {
			fmt.Print(consoleStyle.Render(text))
		},
		ConsoleReady: func() {},
		RequestSent: func(req *tgdb.Request, renderedText string) {
			logger.Debugw("request sent", "text", strings.TrimRight(renderedText, "\n"))
		},
		CommandResponse: func(resp tgdb.Response) {
			printResponse(resp, rl)
		},
	}, logger)
	core.SetGdbInfo(info)
	core.ResetInferiorTTY(inferiorTTY.SlaveName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := tgdb.NewLoop(core, sup, sup)
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	// The inferior has its own pty (C7); forward its stdout/stderr to our
	// own, the same way original_source/lib/tgdb/driver.cpp's tty_input
	// pumps the child's tty to the terminal.
	go io.Copy(os.Stdout, inferiorTTY)

	for {
		line, err := rl.Readline()
		if err != nil {
			cancel()
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "q" {
			cancel()
			break
		}
		// A leading "!" sends the rest of the line to the inferior's stdin
		// instead of to gdb, the closest plain-readline equivalent of
		// send_inferior_char without a second terminal mode.
		if rest, ok := strings.CutPrefix(line, "!"); ok {
			inferiorTTY.Write([]byte(rest + "\n"))
			continue
		}
		loop.Submit(&tgdb.Request{Kind: tgdb.RequestConsoleCommand, ConsoleText: line})
	}

	<-loopDone
	return nil
}

func printResponse(resp tgdb.Response, rl *readline.Instance) {
	switch resp.Kind {
	case tgdb.ResponseUpdateConsolePrompt:
		rl.SetPrompt(promptStyle.Render(resp.PromptText))
	case tgdb.ResponseUpdateBreakpoints:
		fmt.Println(eventStyle.Render(fmt.Sprintf("breakpoints: %d", len(resp.Breakpoints))))
	case tgdb.ResponseUpdateFilePosition:
		fmt.Println(eventStyle.Render(fmt.Sprintf("at %s:%d", resp.FilePos.Path, resp.FilePos.Line)))
	case tgdb.ResponseUpdateSourceFiles:
		fmt.Println(eventStyle.Render(fmt.Sprintf("source files: %d", len(resp.SourceFiles))))
	case tgdb.ResponseUpdateCompletions:
		fmt.Println(eventStyle.Render(strings.Join(resp.Completions, "  ")))
	case tgdb.ResponseDisassembleFunc, tgdb.ResponseDisassemblePC:
		for _, l := range resp.DisasmLines {
			fmt.Println(consoleStyle.Render(l))
		}
	case tgdb.ResponseInferiorExited:
		fmt.Println(errorStyle.Render(fmt.Sprintf("inferior exited, status %d", resp.InferiorExitStatus)))
	case tgdb.ResponseQuit:
		fmt.Println(errorStyle.Render(fmt.Sprintf("gdb quit: exit_status=%d return_value=%d", resp.QuitExitStatus, resp.QuitReturnValue)))
	}
}
